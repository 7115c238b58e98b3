package domain

import "testing"

func TestBuildDaySlots_EveningService(t *testing.T) {
	sched := DaySchedule{
		Open:     true,
		Ranges:   []HourRange{{From: "18:00", To: "21:30"}},
		Capacity: 4,
	}

	slots, err := BuildDaySlots("2026-09-04", sched, 10)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(slots) != 21 {
		t.Fatalf("got %d windows, want 21", len(slots))
	}
	if slots[0].StartTime != "18:00" || slots[0].EndTime != "18:10" {
		t.Fatalf("first window %s-%s", slots[0].StartTime, slots[0].EndTime)
	}
	last := slots[len(slots)-1]
	if last.StartTime != "21:20" || last.EndTime != "21:30" {
		t.Fatalf("last window %s-%s", last.StartTime, last.EndTime)
	}
	for _, s := range slots {
		if s.Capacity != 4 || s.Status != SlotActive || !s.Available {
			t.Fatalf("window %s: capacity=%d status=%s available=%v",
				s.StartTime, s.Capacity, s.Status, s.Available)
		}
	}
}

func TestBuildDaySlots_SplitService(t *testing.T) {
	sched := DaySchedule{
		Open: true,
		Ranges: []HourRange{
			{From: "12:00", To: "14:00"},
			{From: "18:00", To: "22:00"},
		},
		Capacity: 6,
	}

	slots, err := BuildDaySlots("2026-09-05", sched, 10)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(slots) != 12+24 {
		t.Fatalf("got %d windows, want 36", len(slots))
	}
}

func TestBuildDaySlots_ClosedDay(t *testing.T) {
	slots, err := BuildDaySlots("2026-09-07", DaySchedule{Open: false}, 10)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("closed day produced %d windows", len(slots))
	}
}

func TestBuildDaySlots_PartialTrailingWindowDropped(t *testing.T) {
	sched := DaySchedule{
		Open:     true,
		Ranges:   []HourRange{{From: "18:00", To: "18:25"}},
		Capacity: 4,
	}
	slots, err := BuildDaySlots("2026-09-04", sched, 10)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// 18:20-18:30 does not fit before 18:25
	if len(slots) != 2 {
		t.Fatalf("got %d windows, want 2", len(slots))
	}
}

func TestBuildDaySlots_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		date  string
		sched DaySchedule
	}{
		{"bad date", "04-09-2026", DaySchedule{Open: true, Capacity: 4, Ranges: []HourRange{{From: "18:00", To: "19:00"}}}},
		{"bad clock", "2026-09-04", DaySchedule{Open: true, Capacity: 4, Ranges: []HourRange{{From: "18h00", To: "19:00"}}}},
		{"inverted range", "2026-09-04", DaySchedule{Open: true, Capacity: 4, Ranges: []HourRange{{From: "19:00", To: "18:00"}}}},
		{"capacity too high", "2026-09-04", DaySchedule{Open: true, Capacity: 11, Ranges: []HourRange{{From: "18:00", To: "19:00"}}}},
		{"capacity zero", "2026-09-04", DaySchedule{Open: true, Capacity: 0, Ranges: []HourRange{{From: "18:00", To: "19:00"}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := BuildDaySlots(tc.date, tc.sched, 10); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
