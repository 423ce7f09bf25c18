package http

import (
	"net/http"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type TrackingHandler struct {
	service interfaces.TrackingService
	logger  logger.Logger
}

func NewTrackingHandler(service interfaces.TrackingService, logger logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		logger:  logger,
	}
}

type OrderStatusResponse struct {
	OrderNumber         string        `json:"order_number"`
	CurrentStatus       domain.Status `json:"current_status"`
	UpdatedAt           time.Time     `json:"updated_at"`
	EstimatedCompletion *time.Time    `json:"estimated_completion"`
	ProcessedBy         *string       `json:"processed_by"`
}

type StatusHistoryEntry struct {
	Status    domain.Status `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	ChangedBy string        `json:"changed_by"`
}

type OrderSummary struct {
	OrderNumber string           `json:"order_number"`
	Status      domain.Status    `json:"status"`
	Type        domain.OrderType `json:"order_type"`
	TableNumber *string          `json:"table_number"`
	Customer    *string          `json:"customer_name"`
	ItemCount   int              `json:"item_count"`
	Total       decimal.Decimal  `json:"total"`
	Priority    domain.Priority  `json:"priority"`
	CreatedAt   time.Time        `json:"created_at"`
}

func newOrderSummary(o *domain.Order) OrderSummary {
	return OrderSummary{
		OrderNumber: o.Number,
		Status:      o.Status,
		Type:        o.Type,
		TableNumber: o.TableNumber,
		Customer:    o.CustomerName,
		ItemCount:   o.ItemCount(),
		Total:       o.Total,
		Priority:    o.Priority,
		CreatedAt:   o.CreatedAt,
	}
}

type BaristaStatusResponse struct {
	Name            string               `json:"barista_name"`
	Status          domain.BaristaStatus `json:"status"`
	OrdersProcessed int                  `json:"orders_processed"`
	LastSeen        time.Time            `json:"last_seen"`
}

type DashboardResponse struct {
	Pending        int    `json:"pending"`
	Preparing      int    `json:"preparing"`
	Ready          int    `json:"ready"`
	OrdersToday    int    `json:"orders_today"`
	RevenueToday   string `json:"revenue_today"`
	OnlineBaristas int    `json:"online_baristas"`
}

func (h *TrackingHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetOrderStatus(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		fail(w, r, h.logger, "order_status_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, OrderStatusResponse{
		OrderNumber:         result.OrderNumber,
		CurrentStatus:       result.CurrentStatus,
		UpdatedAt:           result.UpdatedAt,
		EstimatedCompletion: result.EstimatedCompletion,
		ProcessedBy:         result.ProcessedBy,
	})
}

func (h *TrackingHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetOrderHistory(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		fail(w, r, h.logger, "order_history_failed", err)
		return
	}

	resp := make([]StatusHistoryEntry, len(history))
	for i, log := range history {
		resp[i] = StatusHistoryEntry{
			Status:    log.Status,
			Timestamp: log.ChangedAt,
			ChangedBy: log.ChangedBy,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var status *domain.Status
	if q := r.URL.Query().Get("status"); q != "" {
		s := domain.Status(q)
		status = &s
	}

	orders, err := h.service.ListOrders(r.Context(), status)
	if err != nil {
		fail(w, r, h.logger, "orders_list_failed", err)
		return
	}

	resp := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderSummary(o))
	}
	respondJSON(w, http.StatusOK, resp)
}

type UpdateStatusRequest struct {
	Status domain.Status `json:"status"`
}

func (h *TrackingHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor := CurrentUser(r.Context())
	order, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "number"), req.Status, actor.Name)
	if err != nil {
		fail(w, r, h.logger, "order_status_update_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderSummary(order))
}

func (h *TrackingHandler) GetBaristasStatus(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("request_received", "Barista status requested", RequestID(r.Context()), nil)

	baristas, err := h.service.GetBaristasStatus(r.Context())
	if err != nil {
		fail(w, r, h.logger, "baristas_status_failed", err)
		return
	}

	resp := make([]BaristaStatusResponse, len(baristas))
	for i, b := range baristas {
		resp[i] = BaristaStatusResponse{
			Name:            b.Name,
			Status:          b.Status,
			OrdersProcessed: b.OrdersProcessed,
			LastSeen:        b.LastSeen,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *TrackingHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		fail(w, r, h.logger, "dashboard_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, DashboardResponse{
		Pending:        d.Pending,
		Preparing:      d.Preparing,
		Ready:          d.Ready,
		OrdersToday:    d.OrdersToday,
		RevenueToday:   d.RevenueToday,
		OnlineBaristas: d.OnlineBaristas,
	})
}
