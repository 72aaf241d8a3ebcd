// Package respond writes JSON responses and maps domain errors to HTTP
// statuses for every handler.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
	"github.com/MrJamesThe3rd/cartera/internal/client"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Excess  string `json:"excess,omitempty"`
	Message string `json:"message,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Decode reads a JSON body into v and checks its validate tags. Failures are
// already written to w; the caller only returns.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, fmt.Sprintf("invalid body: %v", err))
		return false
	}

	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			JSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error:  "validation",
				Field:  fieldPath(fe),
				Reason: fe.Tag(),
			})

			return false
		}

		BadRequest(w, err.Error())

		return false
	}

	return true
}

// fieldPath drops the root struct name from the namespace: "items[0].product".
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}

	return path
}

func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: msg})
}

func NotFound(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: msg})
}

// Error maps err to a status. Validation, integrity and not-found errors are
// the caller's fault and are not logged.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *apperr.ValidationError
		ierr *apperr.IntegrityError
	)

	switch {
	case errors.As(err, &verr):
		resp := errorResponse{Error: "validation", Field: verr.Field, Reason: verr.Reason}
		if verr.Reason == apperr.ReasonOverpayment {
			resp.Excess = verr.Excess.String()
		}

		JSON(w, http.StatusUnprocessableEntity, resp)
	case errors.As(err, &ierr):
		JSON(w, http.StatusConflict, errorResponse{Error: "integrity", Message: ierr.Reason})
	case errors.Is(err, apperr.ErrTransient):
		slog.WarnContext(r.Context(), "conflict not resolved by retry", "path", r.URL.Path, "error", err)
		JSON(w, http.StatusConflict, errorResponse{Error: "conflict", Message: "the record was modified concurrently, try again"})
	case errors.Is(err, client.ErrNotFound):
		NotFound(w, "client not found")
	case errors.Is(err, transaction.ErrNotFound):
		NotFound(w, "transaction not found")
	case errors.Is(err, transaction.ErrPaymentNotFound):
		NotFound(w, "payment not found")
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		JSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal error"})
	}
}
