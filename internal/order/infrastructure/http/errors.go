package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	invdomain "github.com/dmehra2102/Sales-Order-Management/internal/inventory/domain"
	"github.com/dmehra2102/Sales-Order-Management/internal/order/domain"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

type transitionDetails struct {
	CurrentStatus string `json:"current_status"`
	Attempted     string `json:"attempted"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeErrorBody(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, map[string]errorBody{"error": body})
}

// writeError maps service errors onto status codes. Permission errors stay
// generic and unexpected errors are logged without leaking details.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var (
		illegal    *domain.IllegalTransitionError
		stock      *domain.InsufficientStockError
		ref        *domain.InvalidReferenceError
		partial    *domain.PartialFailureError
		validation validator.ValidationErrors
	)

	switch {
	case errors.As(err, &validation):
		fields := make([]fieldError, 0, len(validation))
		for _, fe := range validation {
			fields = append(fields, fieldError{Field: fe.Namespace(), Rule: fe.Tag()})
		}
		writeErrorBody(w, http.StatusBadRequest, errorBody{Code: "invalid_input", Message: "request validation failed", Details: fields})
	case errors.As(err, &partial):
		log.Error("status changed without history record", "order_id", partial.OrderID, "err", partial.Err)
		writeErrorBody(w, http.StatusInternalServerError, errorBody{
			Code:    "partial_failure",
			Message: "status updated but audit history was not recorded",
			Details: map[string]string{"order_id": partial.OrderID},
		})
	case errors.As(err, &illegal):
		attempted := string(illegal.Action)
		if illegal.To != "" {
			attempted = string(illegal.To)
		}
		writeErrorBody(w, http.StatusConflict, errorBody{
			Code:    "illegal_transition",
			Message: illegal.Error(),
			Details: transitionDetails{CurrentStatus: string(illegal.From), Attempted: attempted},
		})
	case errors.As(err, &stock):
		writeErrorBody(w, http.StatusConflict, errorBody{Code: "insufficient_stock", Message: "one or more items are short on stock", Details: stock.Issues})
	case errors.As(err, &ref):
		writeErrorBody(w, http.StatusUnprocessableEntity, errorBody{Code: "invalid_reference", Message: ref.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, errorBody{Code: "not_found", Message: "order not found"})
	case errors.Is(err, invdomain.ErrProductNotFound):
		writeErrorBody(w, http.StatusNotFound, errorBody{Code: "not_found", Message: "product not found"})
	case errors.Is(err, domain.ErrPermissionDenied):
		writeErrorBody(w, http.StatusForbidden, errorBody{Code: "permission_denied", Message: "permission denied"})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, invdomain.ErrInvalidQuantity):
		writeErrorBody(w, http.StatusBadRequest, errorBody{Code: "invalid_input", Message: err.Error()})
	default:
		log.Error("request failed", "err", err)
		writeErrorBody(w, http.StatusInternalServerError, errorBody{Code: "internal", Message: "internal server error"})
	}
}
