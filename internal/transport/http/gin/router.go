package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jfp99/pizza-falchi-sub001/internal/domain"
	redisrepo "github.com/jfp99/pizza-falchi-sub001/internal/repository/redis"
	"github.com/jfp99/pizza-falchi-sub001/internal/service"
	"github.com/jfp99/pizza-falchi-sub001/internal/service/intake"
	"github.com/jfp99/pizza-falchi-sub001/internal/service/maintenance"
	"github.com/jfp99/pizza-falchi-sub001/internal/service/query"
	"github.com/jfp99/pizza-falchi-sub001/internal/service/schedule"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health + metrics
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public API
	r.GET("/slots", handleListSlots(svcs))

	r.POST("/orders", handleSubmitOrder(svcs, idem))
	r.GET("/orders/:id", handleGetOrder(svcs))
	r.POST("/orders/:id/cancel", handleCancelOrder(svcs))

	// Admin-API
	// TODO: add admin middleware
	adm := r.Group("/admin")
	{
		adm.POST("/slots/generate", handleGenerateSlots(svcs))
		adm.PATCH("/slots/:id/close", handleCloseSlot(svcs))
		adm.PATCH("/slots/:id/reopen", handleReopenSlot(svcs))
		adm.POST("/reconcile", handleReconcile(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  List a day's pickup slots
// @Param    date  query  string  true   "YYYY-MM-DD"
// @Param    only  query  string  false  "available"
// @Success  200  {array}   domain.TimeSlot
// @Failure  400  {object}  ErrorResponse
// @Router   /slots [get]
func handleListSlots(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Query("date")
		if date == "" {
			badRequest(c, "date is required")
			return
		}
		onlyAvailable := c.Query("only") == "available" ||
			c.Query("only_available") == "true"

		slots, err := svcs.Query.SlotsByDate(
			c.Request.Context(),
			date,
			onlyAvailable,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s, picker refreshes are bursty
		writeJSONWithCache(c, http.StatusOK, slots, "public, max-age=15", true)
	}
}

// @Summary  Submit order (idempotent)
// @Param    req body  SubmitOrderRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} SubmitOrderResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "slot full or closed / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /orders [post]
func handleSubmitOrder(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		in, err := toSubmitInput(req)
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemOrder(idemKey)

			if payload, ok, _ := idem.GetResult(
				c.Request.Context(),
				idemStorageKey,
			); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(
					http.StatusCreated,
					"application/json; charset=utf-8",
					[]byte(payload),
				)
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(
					c.Request.Context(),
					idemStorageKey,
				); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(
						http.StatusCreated,
						"application/json; charset=utf-8",
						[]byte(payload),
					)
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		order, err := svcs.Intake.Submit(c.Request.Context(), in, rlKey)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErrFallback(c, err, "order could not be created")
			return
		}

		resp := SubmitOrderResponse{
			OrderID:         order.ID.String(),
			Status:          string(order.Status),
			PickupTimeRange: order.PickupTimeRange,
			DemandUnits:     order.DemandUnits,
			TotalCents:      order.TotalCents,
		}
		if order.SlotID != nil {
			resp.SlotID = order.SlotID.String()
		}

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Get order with items
// @Param    id  path  string  true  "Order ID (uuid)"
// @Success  200 {object} domain.Order
// @Failure  404 {object} ErrorResponse
// @Router   /orders/{id} [get]
func handleGetOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		o, err := svcs.Query.Order(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary  Cancel order and release its slot units
// @Param    id  path  string  true  "Order ID (uuid)"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /orders/{id}/cancel [post]
func handleCancelOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Intake.Cancel(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Generate a day's slot grid from opening hours
// @Param    req body  GenerateSlotsRequest true "payload"
// @Success  201 {object} schedule.GenerateResult
// @Failure  400 {object} ErrorResponse
// @Router   /admin/slots/generate [post]
func handleGenerateSlots(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateSlotsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		sched := domain.DaySchedule{
			Open:     req.Open,
			Capacity: req.Capacity,
		}
		for _, r := range req.Ranges {
			sched.Ranges = append(sched.Ranges, domain.HourRange{
				From: r.From,
				To:   r.To,
			})
		}

		res, err := svcs.Schedule.GenerateDay(c.Request.Context(), req.Date, sched)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

// @Summary  Close slot
// @Param    id  path  string  true  "Slot ID (uuid)"
// @Success  200 {object} domain.TimeSlot
// @Failure  404 {object} ErrorResponse
// @Router   /admin/slots/{id}/close [patch]
func handleCloseSlot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		slot, err := svcs.Schedule.CloseSlot(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, slot)
	}
}

// @Summary  Reopen closed slot
// @Param    id  path  string  true  "Slot ID (uuid)"
// @Success  200 {object} domain.TimeSlot
// @Failure  409 {object} ErrorResponse "slot is not closed"
// @Router   /admin/slots/{id}/reopen [patch]
func handleReopenSlot(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		slot, err := svcs.Schedule.ReopenSlot(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, slot)
	}
}

// @Summary  Rebuild slot counters from attached orders
// @Param    req body  ReconcileRequest true "payload"
// @Success  200 {array} domain.SlotCorrection
// @Router   /admin/reconcile [post]
func handleReconcile(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReconcileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		corrections, err := svcs.Maintenance.ReconcileRange(
			c.Request.Context(),
			req.From,
			req.To,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"checked_from": req.From,
			"checked_to":   req.To,
			"corrections":  corrections,
		})
	}
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func toSubmitInput(req SubmitOrderRequest) (intake.SubmitInput, error) {
	in := intake.SubmitInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryMode:    req.DeliveryMode,
		DeliveryAddress: req.DeliveryAddress,
		AssignedBy:      domain.AssignedBy(req.AssignedBy),
	}

	if req.SlotID != "" {
		id, err := uuid.Parse(req.SlotID)
		if err != nil {
			return in, errors.New("invalid slot_id")
		}
		in.SlotID = &id
	}

	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductID)
		if err != nil {
			return in, errors.New("invalid product_id: " + it.ProductID)
		}
		in.Items = append(in.Items, domain.LineItem{
			ProductID:      pid,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
		})
	}

	return in, nil
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	respondErrFallback(c, err, "internal error")
}

func respondErrFallback(c *gin.Context, err error, fallback string) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var vErr *intake.ValidationError
	var capErr *domain.CapacityError

	switch {
	// intake service
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: vErr.Error()})
		return
	case errors.As(err, &capErr):
		c.JSON(http.StatusConflict, ErrorResponse{Error: capErr.Error()})
		return
	case errors.Is(err, intake.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
		return
	case errors.Is(err, intake.ErrSlotNotFound),
		errors.Is(err, schedule.ErrSlotNotFound),
		errors.Is(err, maintenance.ErrSlotNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "slot not found"})
		return
	case errors.Is(err, intake.ErrOrderNotFound),
		errors.Is(err, query.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "order not found"})
		return
	case errors.Is(err, intake.ErrOrderNotAttached):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "order not attached to slot"})
		return
	// schedule service
	case errors.Is(err, schedule.ErrInvalidSchedule):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, domain.ErrSlotNotClosed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "slot is not closed"})
		return
	// query service
	case errors.Is(err, query.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid date, want YYYY-MM-DD"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
}
