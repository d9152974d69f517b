package httppresentation

import (
	"net/http"

	apppayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"

	"github.com/go-chi/chi/v5"
)

type payRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Method  string `json:"method" validate:"required"`
}

func (h *Handler) handlePay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	p, err := h.svc.Pay.Execute(r.Context(), apppayment.PayInput{
		OrderID: req.OrderID,
		Method:  dompay.Method(req.Method),
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Payments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}
