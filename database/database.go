package database

import (
	"fmt"

	"github.com/anjiri1684/houserent/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

const (
	OrderNumberSequence = "travel_offer_order_number_seq"

	activeOrderPairIndex = "idx_orders_active_pair"
)

func ConnectDB(dsn string) (*gorm.DB, error) {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	logrus.Info("✅ Database connected successfully")
	return DB, nil
}

// Migrate creates the tables plus the order number sequence and the partial
// unique index that keeps one live order per (travel, object) pair.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.TravelDetail{},
		&models.LocationObject{},
		&models.ObjectPrice{},
		&models.Order{},
		&models.TravelOffer{},
		&models.Transaction{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	statements := []string{
		fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START WITH 1 INCREMENT BY 1", OrderNumberSequence),
		// only ever moves the sequence forward, for rows imported with explicit numbers
		fmt.Sprintf("SELECT setval('%[1]s', m) FROM (SELECT MAX(order_number) AS m FROM travel_offers) t WHERE m IS NOT NULL AND m > (SELECT last_value FROM %[1]s)", OrderNumberSequence),
		fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON orders (travel_detail_id, match_object_id) WHERE is_deleted = false", activeOrderPairIndex),
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate %q: %w", stmt, err)
		}
	}

	logrus.Info("✅ Database migration successful")
	return nil
}
