package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func newSlot(capacity int) *TimeSlot {
	return &TimeSlot{
		ID:        uuid.New(),
		Date:      "2026-09-04",
		StartTime: "18:00",
		EndTime:   "18:10",
		Capacity:  capacity,
		Status:    SlotActive,
		Available: true,
	}
}

func TestReserve_ConsumesCapacity(t *testing.T) {
	s := newSlot(4)
	o1 := uuid.New()

	if !s.CanReserve(3) {
		t.Fatal("expected CanReserve(3) on empty slot")
	}
	if err := s.Reserve(o1, 3); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if s.ConsumedUnits != 3 {
		t.Fatalf("consumed = %d, want 3", s.ConsumedUnits)
	}
	if s.Status != SlotActive || !s.Available {
		t.Fatalf("status = %s available = %v, want active/true", s.Status, s.Available)
	}

	// second order does not fit: 3+2 > 4
	o2 := uuid.New()
	err := s.Reserve(o2, 2)
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if !strings.Contains(capErr.Error(), "1 more unit(s)") {
		t.Fatalf("unexpected shortfall message: %s", capErr.Error())
	}
	if s.ConsumedUnits != 3 || s.OrderCount != 1 {
		t.Fatalf("rejected reserve must not mutate: consumed=%d orders=%d", s.ConsumedUnits, s.OrderCount)
	}
}

func TestReserve_FlipsToFullAtBoundary(t *testing.T) {
	s := newSlot(4)
	if err := s.Reserve(uuid.New(), 3); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	o2 := uuid.New()
	if err := s.Reserve(o2, 1); err != nil {
		t.Fatalf("boundary reserve: %v", err)
	}
	if s.ConsumedUnits != 4 || s.Status != SlotFull || s.Available {
		t.Fatalf("got consumed=%d status=%s available=%v, want 4/full/false",
			s.ConsumedUnits, s.Status, s.Available)
	}

	// releasing the boundary order flips back to active
	if err := s.Release(o2, 1); err != nil {
		t.Fatalf("release: %v", err)
	}
	if s.ConsumedUnits != 3 || s.Status != SlotActive || !s.Available {
		t.Fatalf("got consumed=%d status=%s available=%v, want 3/active/true",
			s.ConsumedUnits, s.Status, s.Available)
	}
}

func TestReserve_ZeroUnits(t *testing.T) {
	s := newSlot(2)
	if err := s.Reserve(uuid.New(), 0); err != nil {
		t.Fatalf("zero reservation should succeed: %v", err)
	}
	if s.ConsumedUnits != 0 || s.OrderCount != 1 {
		t.Fatalf("got consumed=%d orders=%d", s.ConsumedUnits, s.OrderCount)
	}
	if err := s.Reserve(uuid.New(), -1); !errors.Is(err, ErrNegativeUnits) {
		t.Fatalf("expected ErrNegativeUnits, got %v", err)
	}
}

func TestReserve_ClosedSlot(t *testing.T) {
	s := newSlot(4)
	s.Close()

	if s.CanReserve(1) {
		t.Fatal("closed slot must not accept reservations")
	}
	err := s.Reserve(uuid.New(), 1)
	var capErr *CapacityError
	if !errors.As(err, &capErr) || !capErr.Closed {
		t.Fatalf("expected closed CapacityError, got %v", err)
	}

	// capacity recompute never lifts the administrative override
	if s.Status != SlotClosed || s.Available {
		t.Fatalf("status = %s available = %v after rejected reserve", s.Status, s.Available)
	}

	if err := s.Reopen(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s.Status != SlotActive || !s.Available {
		t.Fatalf("reopen: status = %s available = %v", s.Status, s.Available)
	}
	if err := s.Reopen(); !errors.Is(err, ErrSlotNotClosed) {
		t.Fatalf("reopen on active slot: %v", err)
	}
}

func TestReopen_FullSlotStaysFull(t *testing.T) {
	s := newSlot(1)
	if err := s.Reserve(uuid.New(), 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	s.Close()
	if err := s.Reopen(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s.Status != SlotFull || s.Available {
		t.Fatalf("reopened full slot: status = %s available = %v", s.Status, s.Available)
	}
}

func TestRelease_OrderNotAttached(t *testing.T) {
	s := newSlot(4)
	if err := s.Release(uuid.New(), 1); !errors.Is(err, ErrOrderNotAttached) {
		t.Fatalf("expected ErrOrderNotAttached, got %v", err)
	}
}

func TestRelease_FirstOccurrenceOnly(t *testing.T) {
	s := newSlot(10)
	o := uuid.New()
	if err := s.Reserve(o, 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := s.Reserve(o, 2); err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if s.OrderCount != 2 || s.ConsumedUnits != 4 {
		t.Fatalf("got orders=%d consumed=%d", s.OrderCount, s.ConsumedUnits)
	}
	if err := s.Release(o, 2); err != nil {
		t.Fatalf("release: %v", err)
	}
	if s.OrderCount != 1 || s.ConsumedUnits != 2 {
		t.Fatalf("release must remove one occurrence: orders=%d consumed=%d",
			s.OrderCount, s.ConsumedUnits)
	}
}

func TestRelease_FloorsAtZero(t *testing.T) {
	s := newSlot(4)
	o := uuid.New()
	if err := s.Reserve(o, 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := s.Release(o, 3); err != nil {
		t.Fatalf("release: %v", err)
	}
	if s.ConsumedUnits != 0 {
		t.Fatalf("consumed = %d, want floor at 0", s.ConsumedUnits)
	}
}

func TestDerivedFieldConsistency(t *testing.T) {
	s := newSlot(3)
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		if err := s.Reserve(id, 1); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if s.OrderCount != len(s.OrderIDs) {
			t.Fatalf("order count %d != len(order ids) %d", s.OrderCount, len(s.OrderIDs))
		}
		if s.Available != (s.ConsumedUnits < s.Capacity) {
			t.Fatalf("available=%v inconsistent with %d/%d", s.Available, s.ConsumedUnits, s.Capacity)
		}
	}
	for _, id := range ids {
		if err := s.Release(id, 1); err != nil {
			t.Fatalf("release: %v", err)
		}
		if s.OrderCount != len(s.OrderIDs) {
			t.Fatalf("order count %d != len(order ids) %d", s.OrderCount, len(s.OrderIDs))
		}
		if s.Available != (s.ConsumedUnits < s.Capacity) {
			t.Fatalf("available=%v inconsistent with %d/%d", s.Available, s.ConsumedUnits, s.Capacity)
		}
	}
}

func TestValidateClock(t *testing.T) {
	valid := []string{"00:00", "09:30", "18:00", "23:59"}
	for _, v := range valid {
		if !ValidateClock(v) {
			t.Errorf("ValidateClock(%q) = false", v)
		}
	}
	invalid := []string{"24:00", "7:30", "18:60", "1800", "", "18:00:00"}
	for _, v := range invalid {
		if ValidateClock(v) {
			t.Errorf("ValidateClock(%q) = true", v)
		}
	}
}
