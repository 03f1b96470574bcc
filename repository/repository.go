package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/anjiri1684/houserent/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// transition applies updates to a live row still matching guard and bumps its version.
func (s *GormStore) transition(ctx context.Context, model interface{}, id uuid.UUID, guard string, updates map[string]interface{}) (bool, error) {
	updates["version"] = gorm.Expr("version + 1")
	res := s.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND is_deleted = ?", id, false).
		Where(guard).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) setFlag(ctx context.Context, model interface{}, id uuid.UUID, flag Flag, from, to bool) (bool, error) {
	col, err := flagColumn(flag)
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).
		Model(model).
		Where("id = ?", id).
		Where(col+" = ?", from).
		Update(col, to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func flagColumn(flag Flag) (string, error) {
	switch flag {
	case FlagSent, FlagExpirySent:
		return string(flag), nil
	}
	return "", fmt.Errorf("unknown delivery flag %q", flag)
}

func skipLocked(table string) clause.Locking {
	return clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: table}, Options: "SKIP LOCKED"}
}

func (s *GormStore) NextOrderNumber(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT nextval('%s')", database.OrderNumberSequence)).
		Scan(&n).Error
	if err != nil {
		return 0, fmt.Errorf("next order number: %w", err)
	}
	return n, nil
}
