package schedule

import "errors"

var (
	ErrSlotNotFound    = errors.New("slot not found")
	ErrInvalidSchedule = errors.New("invalid schedule")
)
