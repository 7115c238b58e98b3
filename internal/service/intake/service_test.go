package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
	"github.com/jfp99/pizza-falchi-sub001/internal/repository"
	"github.com/jfp99/pizza-falchi-sub001/internal/uow"
)

// memStore emulates the transactional store: Do serializes callers the
// way the slot row lock does, and a failed fn discards all staged
// writes the way a rollback does.
type memStore struct {
	mu     sync.Mutex
	slots  map[uuid.UUID]*domain.TimeSlot
	orders map[uuid.UUID]*domain.Order

	txCount int
}

func newMemStore() *memStore {
	return &memStore{
		slots:  map[uuid.UUID]*domain.TimeSlot{},
		orders: map[uuid.UUID]*domain.Order{},
	}
}

func (s *memStore) addSlot(slot *domain.TimeSlot) {
	s.slots[slot.ID] = slot
}

func (s *memStore) Do(ctx context.Context, fn func(ctx context.Context, tx Tx, after func(uow.AfterCommit)) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txCount++

	tx := &memTx{
		store:  s,
		slots:  map[uuid.UUID]*domain.TimeSlot{},
		orders: map[uuid.UUID]*domain.Order{},
	}

	var hooks []uow.AfterCommit
	if err := fn(ctx, tx, func(h uow.AfterCommit) {
		hooks = append(hooks, h)
	}); err != nil {
		return err
	}

	// commit staged writes
	for id, slot := range tx.slots {
		s.slots[id] = slot
	}
	for id, o := range tx.orders {
		s.orders[id] = o
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}

type memTx struct {
	store  *memStore
	slots  map[uuid.UUID]*domain.TimeSlot
	orders map[uuid.UUID]*domain.Order
}

func copySlot(s *domain.TimeSlot) *domain.TimeSlot {
	cp := *s
	cp.OrderIDs = append([]uuid.UUID(nil), s.OrderIDs...)
	return &cp
}

func (t *memTx) SlotForUpdate(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	if s, ok := t.slots[id]; ok {
		return s, nil
	}
	s, ok := t.store.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := copySlot(s)
	t.slots[id] = cp
	return cp, nil
}

func (t *memTx) SaveSlot(ctx context.Context, s *domain.TimeSlot) error {
	t.slots[s.ID] = s
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	cp := *o
	t.orders[o.ID] = &cp
	return nil
}

func (t *memTx) OrderWithItems(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if o, ok := t.orders[id]; ok {
		return o, nil
	}
	o, ok := t.store.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	t.orders[id] = &cp
	return &cp, nil
}

func (t *memTx) SetOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	o, err := t.OrderWithItems(ctx, id)
	if err != nil {
		return err
	}
	o.Status = status
	t.orders[id] = o
	return nil
}

// fakeClassifier counts quantities of items whose product is a pizza.
type fakeClassifier struct {
	pizzas map[uuid.UUID]bool
}

func (c *fakeClassifier) CapacityUnits(ctx context.Context, items []domain.LineItem) (int, error) {
	var units int
	for _, it := range items {
		if c.pizzas[it.ProductID] {
			units += it.Quantity
		}
	}
	return units, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	orders []uuid.UUID
}

func (n *fakeNotifier) OrderCreated(ctx context.Context, o *domain.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, o.ID)
}

type fakeLimiter struct {
	allowed bool
}

func (l *fakeLimiter) Allow(ctx context.Context, key string) (bool, int64, time.Duration, error) {
	return l.allowed, 0, time.Minute, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSlot(capacity int) *domain.TimeSlot {
	return &domain.TimeSlot{
		ID:        uuid.New(),
		Date:      "2026-09-04",
		StartTime: "18:00",
		EndTime:   "18:10",
		Capacity:  capacity,
		Status:    domain.SlotActive,
		Available: true,
	}
}

type fixture struct {
	store    *memStore
	notifier *fakeNotifier
	svc      *Service
	margher  uuid.UUID // pizza
	cola     uuid.UUID // not capacity-consuming
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    newMemStore(),
		notifier: &fakeNotifier{},
		margher:  uuid.New(),
		cola:     uuid.New(),
	}
	classifier := &fakeClassifier{pizzas: map[uuid.UUID]bool{f.margher: true}}
	f.svc = New(f.store, classifier, f.notifier, nil, nil, nil, testLogger())
	return f
}

func (f *fixture) cart(pizzas, drinks int) []domain.LineItem {
	var items []domain.LineItem
	if pizzas > 0 {
		items = append(items, domain.LineItem{
			ProductID: f.margher, Name: "margherita", Quantity: pizzas, UnitPriceCents: 900,
		})
	}
	if drinks > 0 {
		items = append(items, domain.LineItem{
			ProductID: f.cola, Name: "cola", Quantity: drinks, UnitPriceCents: 300,
		})
	}
	return items
}

func (f *fixture) submit(pizzas, drinks int, slotID *uuid.UUID) (*domain.Order, error) {
	return f.svc.Submit(context.Background(), SubmitInput{
		CustomerName:  "Ada",
		CustomerPhone: "+3901234",
		Items:         f.cart(pizzas, drinks),
		SlotID:        slotID,
	}, "")
}

func TestSubmit_ReservesSlotCapacity(t *testing.T) {
	f := newFixture(t)
	slot := testSlot(4)
	f.store.addSlot(slot)

	order, err := f.submit(3, 2, &slot.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if order.DemandUnits != 3 {
		t.Fatalf("demand = %d, want 3 (drinks must not consume capacity)", order.DemandUnits)
	}
	if order.PickupTimeRange != "18:00-18:10" {
		t.Fatalf("pickup range = %q", order.PickupTimeRange)
	}
	if order.TotalCents != 3*900+2*300 {
		t.Fatalf("total = %d", order.TotalCents)
	}

	stored := f.store.slots[slot.ID]
	if stored.ConsumedUnits != 3 || stored.OrderCount != 1 {
		t.Fatalf("slot consumed=%d orders=%d, want 3/1", stored.ConsumedUnits, stored.OrderCount)
	}
	persisted, ok := f.store.orders[order.ID]
	if !ok {
		t.Fatal("order not persisted")
	}
	if persisted.CreatedAt.IsZero() {
		t.Fatal("persisted order has no creation time")
	}
	if len(f.notifier.orders) != 1 || f.notifier.orders[0] != order.ID {
		t.Fatalf("notifier calls = %v", f.notifier.orders)
	}
}

func TestSubmit_CapacityExceededLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	slot := testSlot(4)
	f.store.addSlot(slot)

	if _, err := f.submit(3, 0, &slot.ID); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err := f.submit(2, 0, &slot.ID)
	var capErr *domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}

	stored := f.store.slots[slot.ID]
	if stored.ConsumedUnits != 3 || stored.OrderCount != 1 {
		t.Fatalf("slot mutated by failed submit: consumed=%d orders=%d", stored.ConsumedUnits, stored.OrderCount)
	}
	// the order persisted before the failed reserve must not survive
	if len(f.store.orders) != 1 {
		t.Fatalf("found %d orders after failed submit, want 1", len(f.store.orders))
	}
	if len(f.notifier.orders) != 1 {
		t.Fatalf("notifier fired for a rolled-back order")
	}
}

func TestSubmit_WithoutSlot(t *testing.T) {
	f := newFixture(t)

	order, err := f.submit(2, 0, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if order.SlotID != nil || order.PickupTimeRange != "" {
		t.Fatalf("slotless order got slot fields: %+v", order)
	}
	if _, ok := f.store.orders[order.ID]; !ok {
		t.Fatal("order not persisted")
	}
}

func TestSubmit_ValidationBeforeTransaction(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		CustomerName:  "",
		CustomerPhone: "",
		Items:         nil,
	}, "")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"customer_name", "customer_phone", "items"} {
		if _, ok := vErr.Fields[field]; !ok {
			t.Errorf("missing field detail %q, got %v", field, vErr.Fields)
		}
	}
	if f.store.txCount != 0 {
		t.Fatalf("validation failure opened %d transactions", f.store.txCount)
	}
}

func TestSubmit_SlotNotFound(t *testing.T) {
	f := newFixture(t)
	stale := uuid.New()

	_, err := f.submit(1, 0, &stale)
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
	if len(f.store.orders) != 0 {
		t.Fatal("order persisted despite missing slot")
	}
}

func TestSubmit_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.svc.limiter = &fakeLimiter{allowed: false}

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		CustomerName:  "Ada",
		CustomerPhone: "+3901234",
		Items:         f.cart(1, 0),
	}, "203.0.113.7")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if f.store.txCount != 0 {
		t.Fatal("rate-limited submit opened a transaction")
	}
}

func TestSubmit_NoOverbookingUnderConcurrency(t *testing.T) {
	f := newFixture(t)
	slot := testSlot(4)
	f.store.addSlot(slot)

	// two concurrent submissions of 3 units each against capacity 4:
	// exactly one may win
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.submit(3, 0, &slot.ID)
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		var capErr *domain.CapacityError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &capErr):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || rejected != 1 {
		t.Fatalf("got %d accepted / %d rejected, want 1/1", ok, rejected)
	}
	if got := f.store.slots[slot.ID].ConsumedUnits; got != 3 {
		t.Fatalf("final consumed = %d, want 3", got)
	}
}

func TestSubmit_ConcurrentSingleUnits(t *testing.T) {
	f := newFixture(t)
	slot := testSlot(4)
	f.store.addSlot(slot)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.submit(1, 0, &slot.ID)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	final := f.store.slots[slot.ID]
	if ok != 4 {
		t.Fatalf("%d submissions accepted, want exactly 4", ok)
	}
	if final.ConsumedUnits != 4 || final.Status != domain.SlotFull {
		t.Fatalf("final consumed=%d status=%s, want 4/full", final.ConsumedUnits, final.Status)
	}
	if final.OrderCount != len(final.OrderIDs) || final.OrderCount != 4 {
		t.Fatalf("order count %d / ids %d, want 4/4", final.OrderCount, len(final.OrderIDs))
	}
}

func TestCancel_ReleasesCapacity(t *testing.T) {
	f := newFixture(t)
	slot := testSlot(4)
	f.store.addSlot(slot)

	order, err := f.submit(3, 0, &slot.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := f.svc.Cancel(context.Background(), order.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	stored := f.store.slots[slot.ID]
	if stored.ConsumedUnits != 0 || stored.OrderCount != 0 {
		t.Fatalf("slot after cancel: consumed=%d orders=%d", stored.ConsumedUnits, stored.OrderCount)
	}
	if got := f.store.orders[order.ID].Status; got != domain.OrderCancelled {
		t.Fatalf("order status = %s", got)
	}

	// cancelling again is a no-op
	if err := f.svc.Cancel(context.Background(), order.ID); err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if got := f.store.slots[slot.ID].ConsumedUnits; got != 0 {
		t.Fatalf("second cancel changed consumed to %d", got)
	}
}

func TestCancel_OrderNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Cancel(context.Background(), uuid.New())
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
