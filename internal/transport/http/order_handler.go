package http

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/service/order"
)

// OrderHandler обрабатывает HTTP-запросы к заказам.
type OrderHandler struct {
	svc    *order.Service
	logger *log.Entry
}

// NewOrderHandler конструирует обработчик заказов.
func NewOrderHandler(svc *order.Service, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.WithField("component", "order-handler")
	}
	return &OrderHandler{svc: svc, logger: logger}
}

// Create обрабатывает POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	created, err := h.svc.Create(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(created))
}

// Get обрабатывает GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	found, err := h.svc.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(found))
}

// List обрабатывает GET /orders с фильтром status и пагинацией.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter domain.OrderFilter
	if raw := query.Get("status"); raw != "" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
			return
		}
		filter.Status = status
	}

	page, ok := parsePage(w, query.Get("page"), query.Get("size"))
	if !ok {
		return
	}

	items, total, err := h.svc.List(filter, page)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result := make([]orderResponse, 0, len(items))
	for _, item := range items {
		result = append(result, toOrderResponse(item))
	}

	writeJSON(w, http.StatusOK, orderPageResponse{
		Items: result,
		Page:  page.Normalize().Page,
		Size:  page.Normalize().Size,
		Total: total,
	})
}

// Update обрабатывает PUT /orders/{id}: состояние заменяется целиком,
// при ошибке проверки сохранённый заказ остаётся прежним.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	in, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.svc.Update(id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated))
}

// Delete обрабатывает DELETE /orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (order.Input, bool) {
	var in orderRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return order.Input{}, false
	}

	status, err := domain.ParseOrderStatus(in.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return order.Input{}, false
	}

	if in.Discount < 0 {
		writeError(w, http.StatusBadRequest, "invalid_discount", "discount must be non-negative")
		return order.Input{}, false
	}

	items := make([]order.ItemInput, 0, len(in.Items))
	for _, item := range in.Items {
		if item.ProductID == "" {
			writeError(w, http.StatusBadRequest, "invalid_item", "product_id is required")
			return order.Input{}, false
		}
		if item.Amount <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_item", "amount must be positive")
			return order.Input{}, false
		}
		items = append(items, order.ItemInput{ProductID: item.ProductID, Amount: item.Amount})
	}

	return order.Input{
		Status:   status,
		Items:    items,
		Discount: in.Discount,
	}, true
}
