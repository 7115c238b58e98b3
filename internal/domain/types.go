package domain

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotActive SlotStatus = "active"
	SlotFull   SlotStatus = "full"
	SlotClosed SlotStatus = "closed"
)

// TimeSlot is a fixed pickup window with an oven-imposed capacity ceiling.
// ConsumedUnits and OrderIDs are mutated only through Reserve/Release.
type TimeSlot struct {
	ID            uuid.UUID
	Date          string // YYYY-MM-DD, local to the business
	StartTime     string // HH:MM
	EndTime       string // HH:MM
	Capacity      int
	ConsumedUnits int
	OrderCount    int
	OrderIDs      []uuid.UUID
	Status        SlotStatus
	Available     bool
	CreatedAt     time.Time
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type AssignedBy string

const (
	AssignedByCustomer AssignedBy = "customer"
	AssignedByCashier  AssignedBy = "cashier"
	AssignedBySystem   AssignedBy = "system"
)

type LineItem struct {
	ProductID      uuid.UUID
	Name           string
	Quantity       int
	UnitPriceCents int
}

type Order struct {
	ID              uuid.UUID
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	CustomerName    string
	CustomerPhone   string
	DeliveryMode    string // pickup | delivery
	DeliveryAddress string
	Items           []LineItem
	SlotID          *uuid.UUID
	PickupTimeRange string // "HH:MM-HH:MM", copied from the slot at intake
	AssignedBy      AssignedBy
	DemandUnits     int
	TotalCents      int
	CreatedAt       time.Time
}

type Product struct {
	ID         uuid.UUID
	Name       string
	Category   string
	PriceCents int
}

// DefaultCapacityCategory is the product category that consumes oven capacity.
const DefaultCapacityCategory = "pizza"

// HourRange is a half-open operating interval within one day.
type HourRange struct {
	From string // HH:MM
	To   string // HH:MM
}

// DaySchedule describes one day's opening hours and the capacity
// assigned to the windows generated from it.
type DaySchedule struct {
	Open     bool
	Ranges   []HourRange
	Capacity int
}

// SlotCorrection reports a reconciliation fix for one slot.
type SlotCorrection struct {
	SlotID          uuid.UUID
	Date            string
	StartTime       string
	StoredUnits     int
	RecomputedUnits int
}
