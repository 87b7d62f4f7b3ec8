package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/service/product"
)

// ProductHandler обрабатывает HTTP-запросы к каталогу.
type ProductHandler struct {
	svc    *product.Service
	logger *log.Entry
}

// NewProductHandler конструирует обработчик каталога.
func NewProductHandler(svc *product.Service, logger *log.Entry) *ProductHandler {
	if logger == nil {
		logger = log.WithField("component", "product-handler")
	}
	return &ProductHandler{svc: svc, logger: logger}
}

// Create обрабатывает POST /products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	ptype, err := domain.ParseProductType(in.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_type", err.Error())
		return
	}

	created, err := h.svc.Create(product.CreateInput{
		Name:   in.Name,
		Price:  in.Price,
		Type:   ptype,
		Active: active,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(created))
}

// Get обрабатывает GET /products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	found, err := h.svc.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(found))
}

// List обрабатывает GET /products с фильтрами name, type, active и пагинацией.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := domain.ProductFilter{Name: query.Get("name")}
	if raw := query.Get("type"); raw != "" {
		ptype, err := domain.ParseProductType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_type", err.Error())
			return
		}
		filter.Type = ptype
	}
	if raw := query.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_active", "active must be a boolean")
			return
		}
		filter.Active = &active
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

	result := make([]productResponse, 0, len(items))
	for _, item := range items {
		result = append(result, toProductResponse(item))
	}

	writeJSON(w, http.StatusOK, productPageResponse{
		Items: result,
		Page:  page.Normalize().Page,
		Size:  page.Normalize().Size,
		Total: total,
	})
}

// Update обрабатывает PUT /products/{id}: поля заменяются целиком.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	in, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	ptype, err := domain.ParseProductType(in.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_type", err.Error())
		return
	}

	updated, err := h.svc.Update(id, product.UpdateInput{
		Name:   in.Name,
		Price:  in.Price,
		Type:   ptype,
		Active: active,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(updated))
}

// Delete обрабатывает DELETE /products/{id}. Товар, связанный с заказами,
// удалить нельзя — это 409.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *ProductHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	var in productRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return productRequest{}, false
	}
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return productRequest{}, false
	}
	return in, true
}

// parseID проверяет, что идентификатор в пути — корректный UUID.
// Нечитаемый идентификатор — это 400, а не 404: хранилищу он не передаётся.
func parseID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return "", false
	}
	return id, true
}

func parsePage(w http.ResponseWriter, rawPage, rawSize string) (domain.PageRequest, bool) {
	var page domain.PageRequest

	if rawPage != "" {
		value, err := strconv.Atoi(rawPage)
		if err != nil || value < 0 {
			writeError(w, http.StatusBadRequest, "invalid_page", "page must be a non-negative integer")
			return domain.PageRequest{}, false
		}
		page.Page = value
	}
	if rawSize != "" {
		value, err := strconv.Atoi(rawSize)
		if err != nil || value <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_size", "size must be a positive integer")
			return domain.PageRequest{}, false
		}
		page.Size = value
	}

	return page.Normalize(), true
}
