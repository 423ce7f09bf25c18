package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/app/cart"
	"github.com/YelzhanWeb/cafe/internal/app/catalog"
	"github.com/YelzhanWeb/cafe/internal/app/checkout"
	"github.com/YelzhanWeb/cafe/internal/app/giftcard"
	"github.com/YelzhanWeb/cafe/internal/app/session"
	"github.com/YelzhanWeb/cafe/internal/app/table"
	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// sessions opens the caller's storefront session. A session evicted between
// Open and Do is reopened once from the store.
type sessions struct {
	manager *session.Manager
}

func (s sessions) with(r *http.Request, fn func(sess *session.Session) error) error {
	id := SessionID(r.Context())
	for attempt := 0; ; attempt++ {
		sess, err := s.manager.Open(r.Context(), id)
		if err != nil {
			return err
		}
		err = fn(sess)
		if attempt == 0 && errors.Is(err, session.ErrSessionClosed) {
			continue
		}
		return err
	}
}

type StorefrontHandler struct {
	sessions
	catalog   *catalog.Service
	cart      *cart.Ledger
	tables    *table.Service
	giftCards *giftcard.Service
	checkout  *checkout.Service
	logger    logger.Logger
}

func NewStorefrontHandler(
	manager *session.Manager,
	products *catalog.Service,
	ledger *cart.Ledger,
	tables *table.Service,
	giftCards *giftcard.Service,
	orders *checkout.Service,
	logger logger.Logger,
) *StorefrontHandler {
	return &StorefrontHandler{
		sessions:  sessions{manager: manager},
		catalog:   products,
		cart:      ledger,
		tables:    tables,
		giftCards: giftCards,
		checkout:  orders,
		logger:    logger,
	}
}

// Каталог

func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := domain.Category(r.URL.Query().Get("category"))
	if category != "" && !category.IsValid() {
		respondError(w, "Unknown category", http.StatusBadRequest, nil)
		return
	}

	var (
		products []domain.Product
		err      error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		products, err = h.catalog.Search(r.Context(), q, category)
	} else {
		products, err = h.catalog.List(r.Context(), category)
	}
	if err != nil {
		fail(w, r, h.logger, "products_list_failed", err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *StorefrontHandler) PopularProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Popular(r.Context())
	if err != nil {
		fail(w, r, h.logger, "products_popular_failed", err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *StorefrontHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, found, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, h.logger, "product_get_failed", err)
		return
	}
	if !found {
		respondError(w, "Product Not Found", http.StatusNotFound, nil)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Корзина

type CartResponse struct {
	Items []domain.LineItem `json:"items"`
	domain.Totals
	GiftCard    *domain.GiftCardApplication `json:"giftCard,omitempty"`
	TableNumber *string                     `json:"tableNumber"`
}

func newCartResponse(q *checkout.Quote) CartResponse {
	items := q.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return CartResponse{Items: items, Totals: q.Totals, GiftCard: q.GiftCard, TableNumber: q.TableNumber}
}

func (h *StorefrontHandler) quote(r *http.Request) (CartResponse, error) {
	var resp CartResponse
	err := h.with(r, func(sess *session.Session) error {
		q, err := h.checkout.Quote(r.Context(), sess)
		if err != nil {
			return err
		}
		resp = newCartResponse(q)
		return nil
	})
	return resp, err
}

func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	resp, err := h.quote(r)
	if err != nil {
		fail(w, r, h.logger, "cart_get_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

type AddItemRequest struct {
	ProductID string            `json:"productId"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options"`
}

type AddItemResponse struct {
	Item domain.LineItem `json:"item"`
	Cart CartResponse    `json:"cart"`
}

func (h *StorefrontHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		respondError(w, "Validation failed", http.StatusBadRequest, []ValidationError{
			{Field: "productId", Message: "product id is required"},
		})
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	product, found, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		fail(w, r, h.logger, "cart_add_failed", err)
		return
	}
	if !found {
		respondError(w, "Product Not Found", http.StatusNotFound, nil)
		return
	}

	var item domain.LineItem
	err = h.with(r, func(sess *session.Session) error {
		item, err = h.cart.AddItem(r.Context(), sess, product, req.Quantity, req.Options)
		return err
	})
	if err != nil {
		fail(w, r, h.logger, "cart_add_failed", err)
		return
	}

	resp, err := h.quote(r)
	if err != nil {
		fail(w, r, h.logger, "cart_get_failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, AddItemResponse{Item: item, Cart: resp})
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *StorefrontHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	// Степпер на странице корзины не опускается ниже 1
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	lineID := chi.URLParam(r, "lineID")
	var found bool
	err := h.with(r, func(sess *session.Session) error {
		var err error
		found, err = h.cart.UpdateQuantity(r.Context(), sess, lineID, req.Quantity)
		return err
	})
	if err != nil {
		fail(w, r, h.logger, "cart_update_failed", err)
		return
	}
	if !found {
		respondError(w, "Cart item not found", http.StatusNotFound, nil)
		return
	}
	h.GetCart(w, r)
}

func (h *StorefrontHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineID")
	err := h.with(r, func(sess *session.Session) error {
		return h.cart.RemoveItem(r.Context(), sess, lineID)
	})
	if err != nil {
		fail(w, r, h.logger, "cart_remove_failed", err)
		return
	}
	h.GetCart(w, r)
}

func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	err := h.with(r, func(sess *session.Session) error {
		return h.cart.Clear(r.Context(), sess)
	})
	if err != nil {
		fail(w, r, h.logger, "cart_clear_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Подарочные карты

type ApplyGiftCardRequest struct {
	Code string `json:"code"`
}

func (h *StorefrontHandler) ApplyGiftCard(w http.ResponseWriter, r *http.Request) {
	var req ApplyGiftCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		app   *domain.GiftCardApplication
		found bool
	)
	err := h.with(r, func(sess *session.Session) error {
		var err error
		app, found, err = h.giftCards.Apply(r.Context(), sess, req.Code)
		return err
	})
	if err != nil {
		fail(w, r, h.logger, "gift_card_apply_failed", err)
		return
	}
	if !found {
		respondError(w, "Invalid gift card code", http.StatusNotFound, nil)
		return
	}
	respondJSON(w, http.StatusOK, app)
}

func (h *StorefrontHandler) RemoveGiftCard(w http.ResponseWriter, r *http.Request) {
	err := h.with(r, func(sess *session.Session) error {
		return h.giftCards.Remove(r.Context(), sess)
	})
	if err != nil {
		fail(w, r, h.logger, "gift_card_remove_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StorefrontHandler) GiftCardBalance(w http.ResponseWriter, r *http.Request) {
	card, err := h.giftCards.Balance(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondError(w, "Gift card not found", http.StatusNotFound, nil)
			return
		}
		fail(w, r, h.logger, "gift_card_balance_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

type SendGiftCardRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Sender    domain.Party    `json:"sender"`
	Recipient domain.Party    `json:"recipient"`
	Message   string          `json:"message"`
}

func (h *StorefrontHandler) SendGiftCard(w http.ResponseWriter, r *http.Request) {
	var req SendGiftCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.giftCards.Send(r.Context(), giftcard.SendGiftCardCommand{
		Amount:    req.Amount,
		Sender:    req.Sender,
		Recipient: req.Recipient,
		Message:   req.Message,
	})
	if err != nil {
		fail(w, r, h.logger, "gift_card_send_failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, card)
}

// Оформление заказа

type OrderResponse struct {
	OrderNumber    string             `json:"orderNumber"`
	Status         domain.Status      `json:"status"`
	Type           domain.OrderType   `json:"type"`
	TableNumber    *string            `json:"tableNumber"`
	Items          []domain.OrderItem `json:"items"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Tax            decimal.Decimal    `json:"tax"`
	GiftCardCode   *string            `json:"giftCardCode,omitempty"`
	GiftCardAmount decimal.Decimal    `json:"giftCardAmount"`
	Total          decimal.Decimal    `json:"total"`
	PointsEarned   int                `json:"pointsEarned"`
	CreatedAt      time.Time          `json:"createdAt"`
}

func newOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		OrderNumber:    o.Number,
		Status:         o.Status,
		Type:           o.Type,
		TableNumber:    o.TableNumber,
		Items:          o.Items,
		Subtotal:       o.Subtotal,
		Tax:            o.Tax,
		GiftCardCode:   o.GiftCardCode,
		GiftCardAmount: o.GiftCardAmount,
		Total:          o.Total,
		PointsEarned:   o.PointsEarned,
		CreatedAt:      o.CreatedAt,
	}
}

func (h *StorefrontHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var order *domain.Order
	err := h.with(r, func(sess *session.Session) error {
		var err error
		order, err = h.checkout.Checkout(r.Context(), sess, CurrentUser(r.Context()))
		return err
	})
	if err != nil {
		fail(w, r, h.logger, "checkout_failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, newOrderResponse(order))
}

// Столик

type ScanRequest struct {
	Code string `json:"code"`
}

type TableResponse struct {
	Active      bool    `json:"active"`
	TableNumber *string `json:"tableNumber"`
}

func (h *StorefrontHandler) ScanTable(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var n string
	err := h.with(r, func(sess *session.Session) error {
		var err error
		n, err = h.tables.BindFromScan(r.Context(), sess, strings.TrimSpace(req.Code))
		return err
	})
	if err != nil {
		fail(w, r, h.logger, "table_scan_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, TableResponse{Active: true, TableNumber: &n})
}

func (h *StorefrontHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	var resp TableResponse
	err := h.with(r, func(sess *session.Session) error {
		n, ok, err := h.tables.Number(r.Context(), sess)
		if ok {
			resp = TableResponse{Active: true, TableNumber: &n}
		}
		return err
	})
	if err != nil {
		fail(w, r, h.logger, "table_get_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *StorefrontHandler) ClearTable(w http.ResponseWriter, r *http.Request) {
	err := h.with(r, func(sess *session.Session) error {
		return h.tables.Clear(r.Context(), sess)
	})
	if err != nil {
		fail(w, r, h.logger, "table_clear_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CloseSession forgets everything the session holds.
func (h *StorefrontHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	if err := h.manager.Close(ctx, SessionID(r.Context())); err != nil {
		fail(w, r, h.logger, "session_close_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
