package view

import (
	"errors"

	"github.com/MrJamesThe3rd/cartera/internal/apperr"
	"github.com/MrJamesThe3rd/cartera/internal/money"
)

var reasonText = map[string]string{
	apperr.ReasonNonPositiveValue:         "el valor debe ser mayor que cero",
	apperr.ReasonMissingOffsetDescription: "un cruce necesita descripción",
	apperr.ReasonMissingCampaign:          "las ventas Natura necesitan campaña",
	apperr.ReasonInvalidMethod:            "forma de pago no válida",
	apperr.ReasonMissingName:              "el nombre es obligatorio",
	apperr.ReasonDuplicatePhone:           "ya existe un cliente con ese teléfono",
}

// Describe turns service errors into a line for the status bar.
func Describe(err error) string {
	var v *apperr.ValidationError
	if errors.As(err, &v) {
		if v.Reason == apperr.ReasonOverpayment {
			return "El abono supera el saldo por " + money.FormatCOP(v.Excess)
		}

		if text, ok := reasonText[v.Reason]; ok {
			return text
		}

		return v.Field + ": " + v.Reason
	}

	var i *apperr.IntegrityError
	if errors.As(err, &i) {
		return i.Reason
	}

	if errors.Is(err, apperr.ErrTransient) {
		return "Otro usuario modificó la venta, intente de nuevo"
	}

	return "Error: " + err.Error()
}
