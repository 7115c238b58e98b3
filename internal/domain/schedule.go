package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultWindowMinutes is the conventional slot length.
const DefaultWindowMinutes = 10

// BuildDaySlots expands a day schedule into contiguous capacity windows.
// Each operating range [From, To) yields windows of windowMinutes starting
// at From; a window is only emitted when it fits entirely before To.
// A closed day yields no slots. The result carries fresh IDs; persistence
// decides which windows already exist.
func BuildDaySlots(date string, sched DaySchedule, windowMinutes int) ([]TimeSlot, error) {
	if !ValidateDate(date) {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
	}
	if windowMinutes <= 0 {
		windowMinutes = DefaultWindowMinutes
	}
	if !sched.Open {
		return nil, nil
	}
	if !ValidateCapacity(sched.Capacity) {
		return nil, fmt.Errorf("capacity %d out of range [%d, %d]", sched.Capacity, MinCapacity, MaxCapacity)
	}

	var out []TimeSlot
	now := time.Now()

	for _, r := range sched.Ranges {
		if !ValidateClock(r.From) || !ValidateClock(r.To) {
			return nil, fmt.Errorf("invalid range %q-%q, want HH:MM", r.From, r.To)
		}
		from, to := clockMinutes(r.From), clockMinutes(r.To)
		if to <= from {
			return nil, fmt.Errorf("range end %q not after start %q", r.To, r.From)
		}

		for start := from; start+windowMinutes <= to; start += windowMinutes {
			out = append(out, TimeSlot{
				ID:        uuid.New(),
				Date:      date,
				StartTime: minutesClock(start),
				EndTime:   minutesClock(start + windowMinutes),
				Capacity:  sched.Capacity,
				Status:    SlotActive,
				Available: true,
				CreatedAt: now,
			})
		}
	}

	return out, nil
}

func clockMinutes(hhmm string) int {
	var h, m int
	fmt.Sscanf(hhmm, "%d:%d", &h, &m)
	return h*60 + m
}

func minutesClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
