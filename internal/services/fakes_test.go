package services

import (
	"database/sql"
	"fmt"
	"time"

	"resto_ops_backend/internal/models"
	"resto_ops_backend/internal/repositories"
)

// In-memory repository fakes. They honor the same contracts as the SQL
// implementations (guarded decrements, duplicate-key detection, idempotency
// lookups) so service semantics can be exercised without a database.

// fakeTx satisfies repositories.Tx structurally; the fakes never route
// queries through the executor, they mutate the shared store directly.
type fakeTx struct {
	store     *fakeStore
	committed bool
}

func (t *fakeTx) Exec(string, ...interface{}) (sql.Result, error) { return nil, nil }
func (t *fakeTx) QueryRow(string, ...interface{}) *sql.Row        { return nil }
func (t *fakeTx) Query(string, ...interface{}) (*sql.Rows, error) { return nil, nil }

func (t *fakeTx) Commit() error {
	t.committed = true
	t.store.snapshot = nil
	return nil
}

func (t *fakeTx) Rollback() error {
	if t.committed || t.store.snapshot == nil {
		return nil
	}
	t.store.restore()
	return nil
}

// fakeStore is the shared mutable state behind the repository fakes, with a
// snapshot taken at Begin so Rollback can verify all-or-nothing semantics.
type fakeStore struct {
	records  map[int64]*models.InventoryRecord
	ledger   []models.StockLedgerEntry
	nextID   int64
	snapshot *fakeStoreState
}

type fakeStoreState struct {
	records map[int64]models.InventoryRecord
	ledger  []models.StockLedgerEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[int64]*models.InventoryRecord{}, nextID: 1}
}

func (fs *fakeStore) addRecord(rec models.InventoryRecord) *models.InventoryRecord {
	if rec.ID == 0 {
		rec.ID = fs.nextID
	}
	if rec.ID >= fs.nextID {
		fs.nextID = rec.ID + 1
	}
	stored := rec
	fs.records[stored.ID] = &stored
	return &stored
}

func (fs *fakeStore) takeSnapshot() {
	state := &fakeStoreState{records: map[int64]models.InventoryRecord{}}
	for id, rec := range fs.records {
		state.records[id] = *rec
	}
	state.ledger = append([]models.StockLedgerEntry(nil), fs.ledger...)
	fs.snapshot = state
}

func (fs *fakeStore) restore() {
	fs.records = map[int64]*models.InventoryRecord{}
	for id := range fs.snapshot.records {
		rec := fs.snapshot.records[id]
		fs.records[id] = &rec
	}
	fs.ledger = fs.snapshot.ledger
	fs.snapshot = nil
}

type fakeTxManager struct {
	store    *fakeStore
	beginErr error
}

func (m *fakeTxManager) Begin() (repositories.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	m.store.takeSnapshot()
	return &fakeTx{store: m.store}, nil
}

// --- fakeInventoryRepo ---

type fakeInventoryRepo struct {
	store *fakeStore
}

func (r *fakeInventoryRepo) CreateRecord(_ repositories.SQLExecutor, rec *models.InventoryRecord) (int64, error) {
	for _, existing := range r.store.records {
		if existing.Key() == rec.Key() {
			return 0, repositories.ErrDuplicateKey
		}
	}
	stored := r.store.addRecord(*rec)
	rec.ID = stored.ID
	return stored.ID, nil
}

func (r *fakeInventoryRepo) find(storeID, id int64) (*models.InventoryRecord, error) {
	rec, ok := r.store.records[id]
	if !ok || rec.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	return rec, nil
}

func (r *fakeInventoryRepo) GetRecordByID(storeID, id int64) (*models.InventoryRecord, error) {
	rec, err := r.find(storeID, id)
	if err != nil {
		return nil, err
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeInventoryRepo) GetRecordByItem(key models.InventoryKey) (*models.InventoryRecord, error) {
	for _, rec := range r.store.records {
		if rec.Key() == key {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeInventoryRepo) GetRecordByDishTemplate(storeID, templateID int64) (*models.InventoryRecord, error) {
	return r.GetRecordByItem(models.InventoryKey{
		StoreID:       storeID,
		ItemRef:       templateID,
		InventoryType: models.InventoryTypeDishTemplate,
	})
}

func (r *fakeInventoryRepo) GetRecordForUpdate(_ repositories.SQLExecutor, storeID, id int64) (*models.InventoryRecord, error) {
	return r.GetRecordByID(storeID, id)
}

func (r *fakeInventoryRepo) ListRecords(storeID int64, filters models.InventoryFilters) ([]models.InventoryRecord, int, error) {
	var out []models.InventoryRecord
	for id := int64(1); id < r.store.nextID; id++ {
		rec, ok := r.store.records[id]
		if !ok || rec.StoreID != storeID {
			continue
		}
		if filters.InventoryType != nil && rec.InventoryType != *filters.InventoryType {
			continue
		}
		out = append(out, *rec)
	}
	total := len(out)
	if filters.PageSize > 0 {
		start := (filters.Page - 1) * filters.PageSize
		if start >= len(out) {
			return nil, total, nil
		}
		end := start + filters.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (r *fakeInventoryRepo) counter(rec *models.InventoryRecord, stockType string) (*int, error) {
	switch stockType {
	case models.StockTypeTotal:
		return &rec.TotalStock, nil
	case models.StockTypeAvailable:
		return &rec.AvailableStock, nil
	default:
		return nil, fmt.Errorf("%w: unknown stock type %q", repositories.ErrDatabaseError, stockType)
	}
}

func (r *fakeInventoryRepo) ReduceCounter(_ repositories.SQLExecutor, storeID, recordID int64, stockType string, quantity int) (int, int, error) {
	rec, err := r.find(storeID, recordID)
	if err != nil {
		return 0, 0, err
	}
	counter, err := r.counter(rec, stockType)
	if err != nil {
		return 0, 0, err
	}
	if *counter < quantity {
		return 0, 0, repositories.ErrInsufficientStock
	}
	previous := *counter
	*counter -= quantity
	return previous, *counter, nil
}

func (r *fakeInventoryRepo) IncreaseCounter(_ repositories.SQLExecutor, storeID, recordID int64, stockType string, quantity int) (int, int, error) {
	rec, err := r.find(storeID, recordID)
	if err != nil {
		return 0, 0, err
	}
	counter, err := r.counter(rec, stockType)
	if err != nil {
		return 0, 0, err
	}
	previous := *counter
	*counter += quantity
	return previous, *counter, nil
}

func (r *fakeInventoryRepo) SetCounter(_ repositories.SQLExecutor, storeID, recordID int64, stockType string, value int) (int, error) {
	rec, err := r.find(storeID, recordID)
	if err != nil {
		return 0, err
	}
	counter, err := r.counter(rec, stockType)
	if err != nil {
		return 0, err
	}
	*counter = value
	return *counter, nil
}

func (r *fakeInventoryRepo) SetSoldOut(_ repositories.SQLExecutor, storeID, recordID int64, soldOut bool) error {
	rec, err := r.find(storeID, recordID)
	if err != nil {
		return err
	}
	rec.IsSoldOut = soldOut
	return nil
}

func (r *fakeInventoryRepo) UpdateSettings(_ repositories.SQLExecutor, storeID, recordID int64, upd models.InventorySettingsUpdate) error {
	rec, err := r.find(storeID, recordID)
	if err != nil {
		return err
	}
	if upd.MinStockAlert != nil {
		rec.MinStockAlert = *upd.MinStockAlert
	}
	if upd.MaxThreshold != nil {
		rec.MaxThreshold = upd.MaxThreshold
	}
	if upd.IsInventoryTracked != nil {
		rec.IsInventoryTracked = *upd.IsInventoryTracked
	}
	if upd.EnableAvailableStock != nil {
		rec.EnableAvailableStock = *upd.EnableAvailableStock
	}
	if upd.IsSoldOut != nil {
		rec.IsSoldOut = *upd.IsSoldOut
	}
	if upd.AutoReplenish != nil {
		rec.AutoReplenish = *upd.AutoReplenish
	}
	return nil
}

// --- fakeLedgerRepo ---

type fakeLedgerRepo struct {
	store     *fakeStore
	appendErr error
}

func (r *fakeLedgerRepo) AppendEntry(_ repositories.SQLExecutor, entry *models.StockLedgerEntry) (int64, error) {
	if r.appendErr != nil {
		return 0, r.appendErr
	}
	entry.ID = int64(len(r.store.ledger) + 1)
	entry.Ref = fmt.Sprintf("ref-%d", entry.ID)
	entry.CreatedAt = time.Now()
	r.store.ledger = append(r.store.ledger, *entry)
	return entry.ID, nil
}

func (r *fakeLedgerRepo) GetEntries(storeID int64, filters models.LedgerFilters, from, to *time.Time) ([]models.StockLedgerEntry, int, error) {
	var out []models.StockLedgerEntry
	for i := len(r.store.ledger) - 1; i >= 0; i-- {
		entry := r.store.ledger[i]
		if entry.StoreID != storeID {
			continue
		}
		if filters.ChangeType != nil && entry.ChangeType != *filters.ChangeType {
			continue
		}
		if from != nil && entry.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && entry.CreatedAt.After(*to) {
			continue
		}
		out = append(out, entry)
	}
	return out, len(out), nil
}

func (r *fakeLedgerRepo) GetOrderConsumption(storeID, orderID int64) ([]models.StockLedgerEntry, error) {
	var out []models.StockLedgerEntry
	for _, entry := range r.store.ledger {
		if entry.StoreID != storeID || entry.OrderID == nil || *entry.OrderID != orderID {
			continue
		}
		if entry.ChangeType != models.ChangeTypeOrder {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *fakeLedgerRepo) HasOrderEntries(storeID, orderID int64, changeType string) (bool, error) {
	for _, entry := range r.store.ledger {
		if entry.StoreID == storeID && entry.OrderID != nil && *entry.OrderID == orderID && entry.ChangeType == changeType {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLedgerRepo) SumConsumedSince(storeID, itemRef int64, inventoryType string, since time.Time) (int, error) {
	sum := 0
	for _, entry := range r.store.ledger {
		if entry.StoreID != storeID || entry.ItemRef != itemRef || entry.InventoryType != inventoryType {
			continue
		}
		if entry.ChangeType != models.ChangeTypeOrder || entry.ChangeAmount >= 0 {
			continue
		}
		if entry.CreatedAt.Before(since) {
			continue
		}
		sum += -entry.ChangeAmount
	}
	return sum, nil
}

func (r *fakeLedgerRepo) SummarizeByChangeType(storeID int64, from, to time.Time, filters models.LedgerFilters) ([]repositories.ChangeTypeSummary, error) {
	byType := map[string]*repositories.ChangeTypeSummary{}
	var order []string
	for _, entry := range r.store.ledger {
		if entry.StoreID != storeID || entry.CreatedAt.Before(from) || entry.CreatedAt.After(to) {
			continue
		}
		summary, ok := byType[entry.ChangeType]
		if !ok {
			summary = &repositories.ChangeTypeSummary{ChangeType: entry.ChangeType}
			byType[entry.ChangeType] = summary
			order = append(order, entry.ChangeType)
		}
		summary.Entries++
		summary.Net += entry.ChangeAmount
		if entry.ChangeAmount > 0 {
			summary.Increases += entry.ChangeAmount
		} else {
			summary.Decreases += -entry.ChangeAmount
		}
	}
	out := make([]repositories.ChangeTypeSummary, 0, len(order))
	for _, changeType := range order {
		out = append(out, *byType[changeType])
	}
	return out, nil
}

// --- fakeMenuRepo ---

type fakeMenuRepo struct {
	instances map[int64]*models.DishInstance
	options   map[int64]*models.Option
	templates []models.DishTemplate
	withInv   map[int64]bool
}

func newFakeMenuRepo() *fakeMenuRepo {
	return &fakeMenuRepo{
		instances: map[int64]*models.DishInstance{},
		options:   map[int64]*models.Option{},
		withInv:   map[int64]bool{},
	}
}

func (r *fakeMenuRepo) GetDishInstance(storeID, instanceID int64) (*models.DishInstance, error) {
	inst, ok := r.instances[instanceID]
	if !ok || inst.StoreID != storeID {
		return nil, repositories.ErrNotFound
	}
	return inst, nil
}

func (r *fakeMenuRepo) GetOption(optionID int64) (*models.Option, error) {
	opt, ok := r.options[optionID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return opt, nil
}

func (r *fakeMenuRepo) ListTemplatesWithoutInventory(storeID int64) ([]models.DishTemplate, error) {
	var out []models.DishTemplate
	for _, tpl := range r.templates {
		if tpl.StoreID == storeID && tpl.IsActive && !r.withInv[tpl.ID] {
			out = append(out, tpl)
		}
	}
	return out, nil
}

func (r *fakeMenuRepo) CountActiveTemplates(storeID int64) (int, error) {
	count := 0
	for _, tpl := range r.templates {
		if tpl.StoreID == storeID && tpl.IsActive {
			count++
		}
	}
	return count, nil
}

// --- assembly helpers ---

type serviceFixture struct {
	store     *fakeStore
	inventory *fakeInventoryRepo
	ledger    *fakeLedgerRepo
	menu      *fakeMenuRepo
	txm       *fakeTxManager
	mutation  StockMutationService
	resolver  OrderInventoryService
	stats     StockStatsService
}

func newServiceFixture() *serviceFixture {
	store := newFakeStore()
	inventory := &fakeInventoryRepo{store: store}
	ledger := &fakeLedgerRepo{store: store}
	menu := newFakeMenuRepo()
	txm := &fakeTxManager{store: store}
	mutation := NewStockMutationService(inventory, ledger, menu, txm)
	return &serviceFixture{
		store:     store,
		inventory: inventory,
		ledger:    ledger,
		menu:      menu,
		txm:       txm,
		mutation:  mutation,
		resolver:  NewOrderInventoryService(inventory, menu, mutation),
		stats:     NewStockStatsService(inventory, ledger),
	}
}

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func int64Ptr(v int64) *int64 { return &v }
