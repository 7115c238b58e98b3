package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	// DateLayout is the calendar-day format used across the service.
	DateLayout = "2006-01-02"

	// MinCapacity and MaxCapacity bound a window's capacity to what the
	// oven can physically turn over in ten minutes.
	MinCapacity = 1
	MaxCapacity = 10
)

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

var (
	ErrOrderNotAttached = errors.New("order not attached to slot")
	ErrNegativeUnits    = errors.New("unit count must be >= 0")
	ErrSlotNotClosed    = errors.New("slot is not closed")
)

// CapacityError is returned when a reservation does not fit into the
// slot's remaining capacity, or the slot is closed.
type CapacityError struct {
	Requested     int
	ConsumedUnits int
	Capacity      int
	Closed        bool
}

func (e *CapacityError) Error() string {
	if e.Closed {
		return fmt.Sprintf("slot is closed, current: %d/%d", e.ConsumedUnits, e.Capacity)
	}
	return fmt.Sprintf(
		"slot can only accept %d more unit(s), current: %d/%d",
		e.Capacity-e.ConsumedUnits, e.ConsumedUnits, e.Capacity,
	)
}

// ValidateClock reports whether s is a wall-clock string in HH:MM form.
func ValidateClock(s string) bool {
	return clockRe.MatchString(s)
}

// ValidateDate reports whether s is a calendar day in YYYY-MM-DD form.
func ValidateDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidateCapacity reports whether c is within the oven's physical bounds.
func ValidateCapacity(c int) bool {
	return c >= MinCapacity && c <= MaxCapacity
}

// Remaining returns how many units the slot can still accept.
func (s *TimeSlot) Remaining() int {
	r := s.Capacity - s.ConsumedUnits
	if r < 0 {
		return 0
	}
	return r
}

// PickupRange returns the window as "HH:MM-HH:MM".
func (s *TimeSlot) PickupRange() string {
	return s.StartTime + "-" + s.EndTime
}

// CanReserve is the pure acceptance predicate: the slot is active and n
// more units fit under the capacity ceiling. It never mutates state.
func (s *TimeSlot) CanReserve(n int) bool {
	if n < 0 {
		return false
	}
	return s.Status == SlotActive && s.ConsumedUnits+n <= s.Capacity
}

// Reserve attaches orderID and consumes n units. It is all-or-nothing:
// on a CapacityError the slot is left untouched. This is the only legal
// path to increasing ConsumedUnits.
func (s *TimeSlot) Reserve(orderID uuid.UUID, n int) error {
	if n < 0 {
		return ErrNegativeUnits
	}
	if !s.CanReserve(n) {
		return &CapacityError{
			Requested:     n,
			ConsumedUnits: s.ConsumedUnits,
			Capacity:      s.Capacity,
			Closed:        s.Status == SlotClosed,
		}
	}

	s.OrderIDs = append(s.OrderIDs, orderID)
	s.OrderCount = len(s.OrderIDs)
	s.ConsumedUnits += n
	s.recompute()

	return nil
}

// Release detaches the first occurrence of orderID and gives back n units.
// n must match the amount passed to Reserve; the slot does not recompute
// per-order consumption here, mismatches are only caught by reconciliation.
func (s *TimeSlot) Release(orderID uuid.UUID, n int) error {
	if n < 0 {
		return ErrNegativeUnits
	}

	idx := -1
	for i, id := range s.OrderIDs {
		if id == orderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrOrderNotAttached
	}

	s.OrderIDs = append(s.OrderIDs[:idx], s.OrderIDs[idx+1:]...)
	s.OrderCount = len(s.OrderIDs)
	s.ConsumedUnits -= n
	if s.ConsumedUnits < 0 {
		s.ConsumedUnits = 0
	}
	s.recompute()

	return nil
}

// Close is the administrative override (holiday, oven down). A closed
// slot is never reopened by capacity changes.
func (s *TimeSlot) Close() {
	s.Status = SlotClosed
	s.Available = false
}

// Reopen lifts the administrative override and re-derives the state
// from the counters.
func (s *TimeSlot) Reopen() error {
	if s.Status != SlotClosed {
		return ErrSlotNotClosed
	}
	s.Status = SlotActive
	s.recompute()
	return nil
}

// SetConsumed overwrites the counter from a reconciled ground truth and
// re-derives the state. Reserved for the reconciliation path.
func (s *TimeSlot) SetConsumed(units int) {
	if units < 0 {
		units = 0
	}
	s.ConsumedUnits = units
	s.recompute()
}

// recompute re-derives Available and the active/full state after every
// counter mutation. The closed state is external-only and left alone.
func (s *TimeSlot) recompute() {
	s.Available = s.ConsumedUnits < s.Capacity
	if s.Status == SlotClosed {
		s.Available = false
		return
	}
	if s.Available {
		s.Status = SlotActive
	} else {
		s.Status = SlotFull
	}
}
