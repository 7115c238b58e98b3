package httpgin

type SubmitOrderRequest struct {
	CustomerName    string      `json:"customer_name" binding:"required"`
	CustomerPhone   string      `json:"customer_phone" binding:"required"`
	DeliveryMode    string      `json:"delivery_mode"`
	DeliveryAddress string      `json:"delivery_address"`
	Items           []ItemInput `json:"items" binding:"required,min=1,dive"`
	SlotID          string      `json:"slot_id"`
	AssignedBy      string      `json:"assigned_by"`
}

type ItemInput struct {
	ProductID      string `json:"product_id" binding:"required,uuid"`
	Name           string `json:"name" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	UnitPriceCents int    `json:"unit_price_cents" binding:"gte=0"`
}

type SubmitOrderResponse struct {
	OrderID         string `json:"order_id"`
	Status          string `json:"status"`
	SlotID          string `json:"slot_id,omitempty"`
	PickupTimeRange string `json:"pickup_time_range,omitempty"`
	DemandUnits     int    `json:"demand_units"`
	TotalCents      int    `json:"total_cents"`
}

// Capacity and ranges are validated by the domain when the day is open;
// a closed day legitimately carries neither.
type GenerateSlotsRequest struct {
	Date     string           `json:"date" binding:"required"`
	Open     bool             `json:"open"`
	Capacity int              `json:"capacity" binding:"omitempty,gte=1,lte=10"`
	Ranges   []HourRangeInput `json:"ranges" binding:"omitempty,dive"`
}

type HourRangeInput struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type ReconcileRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
