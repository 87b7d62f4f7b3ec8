package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Error:   code,
		Message: msg,
	})
}

// writeDomainError транслирует доменную ошибку в HTTP-статус.
// Невалидная позиция заказа — это 422: запрос синтаксически корректен,
// но ссылается на неактивный товар.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidItem):
		writeError(w, http.StatusUnprocessableEntity, "invalid_item", err.Error())
	case errors.Is(err, domain.ErrProductLinked):
		writeError(w, http.StatusConflict, "product_linked", err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, domain.ErrPriceNegative):
		writeError(w, http.StatusBadRequest, "price_negative", err.Error())
	case errors.Is(err, domain.ErrUnknownProductType),
		errors.Is(err, domain.ErrUnknownOrderStatus):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
