package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anjiri1684/houserent/models"
	"github.com/anjiri1684/houserent/pricing"
	"github.com/anjiri1684/houserent/repository"
	"github.com/google/uuid"
)

// memStore is an in-memory repository.Store with the same guarded updates as
// the SQL implementation.
type memStore struct {
	// batch serializes catch-up batches the way row locks do in SQL.
	batch   sync.Mutex
	mu      sync.Mutex
	objects map[uuid.UUID]*models.LocationObject
	travels map[uuid.UUID]*models.TravelDetail
	orders  map[uuid.UUID]*models.Order
	offers  map[uuid.UUID]*models.TravelOffer
	txs     map[uuid.UUID]*models.Transaction
	seq     int64
	clock   time.Time
}

var _ repository.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		objects: make(map[uuid.UUID]*models.LocationObject),
		travels: make(map[uuid.UUID]*models.TravelDetail),
		orders:  make(map[uuid.UUID]*models.Order),
		offers:  make(map[uuid.UUID]*models.TravelOffer),
		txs:     make(map[uuid.UUID]*models.Transaction),
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func boolPtr(b bool) *bool { return &b }

func (s *memStore) CreateLocationObject(_ context.Context, obj *models.LocationObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj.ID == uuid.Nil {
		obj.ID = uuid.New()
	}
	obj.CreatedAt = s.tick()
	for i := range obj.Prices {
		if obj.Prices[i].ID == uuid.Nil {
			obj.Prices[i].ID = uuid.New()
		}
		obj.Prices[i].ObjectID = obj.ID
		obj.Prices[i].CreatedAt = s.tick()
	}
	cp := *obj
	cp.Prices = append([]models.ObjectPrice(nil), obj.Prices...)
	s.objects[obj.ID] = &cp
	return nil
}

func (s *memStore) GetLocationObject(_ context.Context, id uuid.UUID) (*models.LocationObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	if !ok || obj.IsDeleted {
		return nil, repository.ErrNotFound
	}
	return s.objectCopy(obj), nil
}

func (s *memStore) objectCopy(obj *models.LocationObject) *models.LocationObject {
	cp := *obj
	cp.Prices = append([]models.ObjectPrice(nil), obj.Prices...)
	return &cp
}

func (s *memStore) ReplaceObjectPrices(_ context.Context, objectID uuid.UUID, prices []models.ObjectPrice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[objectID]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range prices {
		if prices[i].ID == uuid.Nil {
			prices[i].ID = uuid.New()
		}
		prices[i].ObjectID = objectID
		prices[i].CreatedAt = s.tick()
	}
	obj.Prices = append([]models.ObjectPrice(nil), prices...)
	return nil
}

func (s *memStore) ObjectPrices(_ context.Context, objectID uuid.UUID) ([]models.ObjectPrice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[objectID]
	if !ok {
		return nil, nil
	}
	return append([]models.ObjectPrice(nil), obj.Prices...), nil
}

func (s *memStore) CreateTravelDetail(_ context.Context, td *models.TravelDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if td.ID == uuid.Nil {
		td.ID = uuid.New()
	}
	td.CreatedAt = s.tick()
	cp := *td
	s.travels[td.ID] = &cp
	return nil
}

func (s *memStore) GetTravelDetail(_ context.Context, id uuid.UUID) (*models.TravelDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, ok := s.travels[id]
	if !ok || td.IsDeleted {
		return nil, repository.ErrNotFound
	}
	cp := *td
	return &cp, nil
}

func (s *memStore) DeleteTravelDetail(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	td, ok := s.travels[id]
	if !ok || td.IsDeleted {
		return false, nil
	}
	td.IsDeleted = true
	return true, nil
}

func (s *memStore) CancelSearch(_ context.Context, userID uuid.UUID) (repository.CancelSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var summary repository.CancelSummary
	for _, off := range s.offers {
		o := s.orders[off.OrderID]
		if o == nil || !off.Pending() {
			continue
		}
		if td := s.travels[o.TravelDetailID]; td == nil || td.UserID != userID {
			continue
		}
		off.IsAccepted = boolPtr(false)
		off.IsDeleted = true
		off.ClosedReason = models.ClosedCancelled
		off.Version++
		summary.Offers++
	}
	for _, o := range s.orders {
		td := s.travels[o.TravelDetailID]
		if td == nil || td.UserID != userID || o.IsDeleted || o.Approved != nil {
			continue
		}
		o.Approved = boolPtr(false)
		o.IsDeleted = true
		o.ClosedReason = models.ClosedCancelled
		o.Version++
		summary.Orders++
	}
	for _, td := range s.travels {
		if td.UserID != userID || td.IsDeleted || s.travelPaid(td.ID) {
			continue
		}
		td.IsDeleted = true
		summary.Travels++
	}
	return summary, nil
}

func (s *memStore) travelPaid(travelID uuid.UUID) bool {
	for _, off := range s.offers {
		o := s.orders[off.OrderID]
		if o != nil && o.TravelDetailID == travelID && off.IsPayed != nil && *off.IsPayed {
			return true
		}
	}
	return false
}

func (s *memStore) FindMatchingObjects(_ context.Context, c repository.MatchCriteria) ([]models.LocationObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LocationObject
	for _, obj := range s.objects {
		if obj.IsDeleted || obj.PlacementID != c.PlacementID || obj.ObjectKindID != c.ObjectKindID {
			continue
		}
		if c.ObjectTypeID != nil && obj.ObjectTypeID != *c.ObjectTypeID {
			continue
		}
		if !pricing.Available(obj.Prices, c.Start, c.End, c.Strict) {
			continue
		}
		out = append(out, *s.objectCopy(obj))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if !o.IsDeleted && o.TravelDetailID == order.TravelDetailID && o.MatchObjectID == order.MatchObjectID {
			return repository.ErrDuplicate
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = s.tick()
	cp := *order
	cp.TravelDetail, cp.MatchObject = nil, nil
	s.orders[order.ID] = &cp
	return nil
}

func (s *memStore) orderCopy(o *models.Order) *models.Order {
	cp := *o
	if td, ok := s.travels[o.TravelDetailID]; ok {
		tdc := *td
		cp.TravelDetail = &tdc
	}
	if obj, ok := s.objects[o.MatchObjectID]; ok {
		cp.MatchObject = s.objectCopy(obj)
	}
	return &cp
}

func (s *memStore) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.orderCopy(o), nil
}

func (s *memStore) ApproveOrder(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.IsDeleted || o.Approved != nil {
		return false, nil
	}
	o.Approved = boolPtr(true)
	o.Version++
	return true, nil
}

func (s *memStore) CloseOrder(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.IsDeleted || o.Approved != nil {
		return false, nil
	}
	o.Approved = boolPtr(false)
	o.IsDeleted = true
	o.ClosedReason = reason
	o.Version++
	return true, nil
}

func flagField(flag repository.Flag, sent, expirySent *bool) *bool {
	if flag == repository.FlagExpirySent {
		return expirySent
	}
	return sent
}

func (s *memStore) ClaimOrderFlag(_ context.Context, id uuid.UUID, flag repository.Flag) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	f := flagField(flag, &o.IsSent, &o.ExpirySent)
	if *f {
		return false, nil
	}
	*f = true
	return true, nil
}

func (s *memStore) ReleaseOrderFlag(_ context.Context, id uuid.UUID, flag repository.Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		*flagField(flag, &o.IsSent, &o.ExpirySent) = false
	}
	return nil
}

func (s *memStore) vendorOf(o *models.Order) uuid.UUID {
	if obj, ok := s.objects[o.MatchObjectID]; ok {
		return obj.VendorID
	}
	return uuid.Nil
}

func (s *memStore) travelerOf(o *models.Order) uuid.UUID {
	if td, ok := s.travels[o.TravelDetailID]; ok {
		return td.UserID
	}
	return uuid.Nil
}

func (s *memStore) sortedOrders(match func(*models.Order) bool) []models.Order {
	var out []models.Order
	for _, o := range s.orders {
		if match(o) {
			out = append(out, *s.orderCopy(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *memStore) ListVendorOrders(_ context.Context, vendorID uuid.UUID, status repository.OrderStatus) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := s.sortedOrders(func(o *models.Order) bool {
		if s.vendorOf(o) != vendorID {
			return false
		}
		switch status {
		case repository.OrdersApproved:
			return o.IsApproved()
		case repository.OrdersRejected:
			return o.Approved != nil && !*o.Approved
		}
		return o.Pending()
	})
	for i := range orders {
		for _, off := range s.offers {
			if off.OrderID == orders[i].ID && !off.IsDeleted {
				orders[i].Offers = append(orders[i].Offers, *off)
			}
		}
		sort.Slice(orders[i].Offers, func(a, b int) bool {
			return orders[i].Offers[a].OrderNumber < orders[i].Offers[b].OrderNumber
		})
	}
	return orders, nil
}

func (s *memStore) OverdueOrders(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, o := range s.sortedOrders(func(o *models.Order) bool { return o.Pending() && !o.ExpiresAt.After(now) }) {
		if len(ids) == limit {
			break
		}
		ids = append(ids, o.ID)
	}
	return ids, nil
}

func (s *memStore) WithUndeliveredOrders(_ context.Context, vendorID uuid.UUID, flag repository.Flag, fn func([]models.Order) error) error {
	s.batch.Lock()
	defer s.batch.Unlock()
	s.mu.Lock()
	orders := s.sortedOrders(func(o *models.Order) bool {
		if s.vendorOf(o) != vendorID || *flagField(flag, &o.IsSent, &o.ExpirySent) {
			return false
		}
		if flag == repository.FlagExpirySent {
			return o.ClosedReason == models.ClosedExpired
		}
		return o.Pending()
	})
	s.mu.Unlock()
	if len(orders) == 0 {
		return nil
	}
	if err := fn(orders); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range orders {
		stored := s.orders[o.ID]
		*flagField(flag, &stored.IsSent, &stored.ExpirySent) = true
	}
	return nil
}

func (s *memStore) NextOrderNumber(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq, nil
}

func (s *memStore) CreateOffer(_ context.Context, offer *models.TravelOffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, off := range s.offers {
		if off.OrderNumber == offer.OrderNumber {
			return repository.ErrDuplicate
		}
	}
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	offer.CreatedAt = s.tick()
	cp := *offer
	cp.Order = nil
	s.offers[offer.ID] = &cp
	return nil
}

func (s *memStore) offerCopy(off *models.TravelOffer) *models.TravelOffer {
	cp := *off
	if o, ok := s.orders[off.OrderID]; ok {
		cp.Order = s.orderCopy(o)
	}
	return &cp
}

func (s *memStore) GetOffer(_ context.Context, id uuid.UUID) (*models.TravelOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	off, ok := s.offers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.offerCopy(off), nil
}

func (s *memStore) AcceptOffer(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	off, ok := s.offers[id]
	if !ok || !off.Pending() {
		return false, nil
	}
	off.IsAccepted = boolPtr(true)
	off.Version++
	return true, nil
}

func (s *memStore) CloseOffer(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	off, ok := s.offers[id]
	if !ok || !off.Pending() {
		return false, nil
	}
	off.IsAccepted = boolPtr(false)
	off.IsDeleted = true
	off.ClosedReason = reason
	off.Version++
	return true, nil
}

func (s *memStore) SettleOffer(_ context.Context, id uuid.UUID, paid bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	off, ok := s.offers[id]
	if !ok || !off.Accepted() || off.IsPayed != nil {
		return false, nil
	}
	off.IsPayed = boolPtr(paid)
	off.Version++
	return true, nil
}

func (s *memStore) UpdateOfferContact(_ context.Context, id uuid.UUID, c repository.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	off, ok := s.offers[id]
	if !ok || off.IsDeleted || off.IsPayed != nil {
		return repository.ErrNotFound
	}
	off.FirstName, off.LastName = &c.FirstName, &c.LastName
	off.Email, off.PhoneNumber = &c.Email, &c.PhoneNumber
	return nil
}

func (s *memStore) ClaimOfferFlag(_ context.Context, id uuid.UUID, flag repository.Flag) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	off, ok := s.offers[id]
	if !ok {
		return false, nil
	}
	f := flagField(flag, &off.IsSent, &off.ExpirySent)
	if *f {
		return false, nil
	}
	*f = true
	return true, nil
}

func (s *memStore) ReleaseOfferFlag(_ context.Context, id uuid.UUID, flag repository.Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if off, ok := s.offers[id]; ok {
		*flagField(flag, &off.IsSent, &off.ExpirySent) = false
	}
	return nil
}

func (s *memStore) sortedOffers(match func(*models.TravelOffer) bool) []models.TravelOffer {
	var out []models.TravelOffer
	for _, off := range s.offers {
		if match(off) {
			out = append(out, *s.offerCopy(off))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *memStore) offerTraveler(off *models.TravelOffer) uuid.UUID {
	if o, ok := s.orders[off.OrderID]; ok {
		return s.travelerOf(o)
	}
	return uuid.Nil
}

func (s *memStore) ListTravelerOffers(_ context.Context, travelerID uuid.UUID, f repository.OfferFilter) ([]models.TravelOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedOffers(func(off *models.TravelOffer) bool {
		if s.offerTraveler(off) != travelerID {
			return false
		}
		if f.Status == repository.OffersPending {
			return off.Pending()
		}
		if off.IsPayed == nil || !*off.IsPayed {
			return false
		}
		if f.Date.IsZero() {
			return true
		}
		end := s.travels[s.orders[off.OrderID].TravelDetailID].EndDate
		if f.Status == repository.OffersActive {
			return !end.Before(f.Date)
		}
		return !end.After(f.Date)
	}), nil
}

func (s *memStore) OverdueOffers(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for _, off := range s.sortedOffers(func(off *models.TravelOffer) bool { return off.Pending() && !off.ExpiresAt.After(now) }) {
		if len(ids) == limit {
			break
		}
		ids = append(ids, off.ID)
	}
	return ids, nil
}

func (s *memStore) WithUndeliveredOffers(_ context.Context, travelerID uuid.UUID, flag repository.Flag, fn func([]models.TravelOffer) error) error {
	s.batch.Lock()
	defer s.batch.Unlock()
	s.mu.Lock()
	offers := s.sortedOffers(func(off *models.TravelOffer) bool {
		if s.offerTraveler(off) != travelerID || *flagField(flag, &off.IsSent, &off.ExpirySent) {
			return false
		}
		if flag == repository.FlagExpirySent {
			return off.ClosedReason == models.ClosedExpired
		}
		return off.Pending()
	})
	s.mu.Unlock()
	if len(offers) == 0 {
		return nil
	}
	if err := fn(offers); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, off := range offers {
		stored := s.offers[off.ID]
		*flagField(flag, &stored.IsSent, &stored.ExpirySent) = true
	}
	return nil
}

func (s *memStore) GetOrCreateTransaction(_ context.Context, tx *models.Transaction) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.txs {
		if existing.TravelOfferID == tx.TravelOfferID {
			cp := *existing
			return &cp, nil
		}
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.CreatedAt = s.tick()
	cp := *tx
	s.txs[tx.ID] = &cp
	return tx, nil
}

func (s *memStore) GetTransaction(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *memStore) SaveTransactionResult(_ context.Context, tx *models.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.txs[tx.ID]
	if !ok || stored.Result != "" {
		return false, nil
	}
	sent := stored.IsSent
	*stored = *tx
	stored.IsSent = sent
	return true, nil
}

func (s *memStore) ClaimTransactionSent(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[id]
	if !ok || tx.IsSent || tx.Result == "" {
		return false, nil
	}
	tx.IsSent = true
	return true, nil
}

func (s *memStore) ReleaseTransactionSent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx, ok := s.txs[id]; ok {
		tx.IsSent = false
	}
	return nil
}

func (s *memStore) WithUndeliveredTransactions(_ context.Context, userID uuid.UUID, fn func([]models.Transaction) error) error {
	s.batch.Lock()
	defer s.batch.Unlock()
	s.mu.Lock()
	var txs []models.Transaction
	for _, tx := range s.txs {
		if tx.UserID == userID && !tx.IsSent && tx.Result != "" {
			txs = append(txs, *tx)
		}
	}
	s.mu.Unlock()
	if len(txs) == 0 {
		return nil
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].CreatedAt.Before(txs[j].CreatedAt) })
	if err := fn(txs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txs {
		s.txs[tx.ID].IsSent = true
	}
	return nil
}
