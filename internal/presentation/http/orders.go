package httppresentation

import (
	"net/http"

	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"

	"github.com/go-chi/chi/v5"
)

type createOrderItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type createOrderRequest struct {
	CustomerID string            `json:"customer_id" validate:"required"`
	Items      []createOrderItem `json:"items" validate:"min=1,dive"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	items := make([]apporder.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, apporder.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	o, err := h.svc.CreateOrder.Execute(r.Context(), apporder.CreateOrderInput{
		CustomerID: req.CustomerID,
		Items:      items,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []*domorder.Order
		err    error
	)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, perr := domorder.ParseStatus(raw)
		if perr != nil {
			h.writeDomainError(w, r, perr)
			return
		}
		orders, err = h.svc.Orders.ListByStatus(r.Context(), status)
	} else {
		page, perr := parsePage(r)
		if perr != nil {
			h.writeDomainError(w, r, perr)
			return
		}
		orders, err = h.svc.Orders.List(r.Context(), page)
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

type transitionRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) handleTransitionStatus(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	status, err := domorder.ParseStatus(req.Status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	o, err := h.svc.TransitionStatus.Execute(r.Context(), apporder.TransitionStatusInput{
		OrderID: chi.URLParam(r, "id"),
		Status:  status,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleGetOrderPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Payments.GetByOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}
