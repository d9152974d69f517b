package httppresentation

import (
	"net/http"

	appcatalog "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/catalog"
	"github.com/shopspring/decimal"

	"github.com/go-chi/chi/v5"
)

// customerRequest is the body of both create and full update.
type customerRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.Catalog.CreateCustomer(r.Context(), appcatalog.CreateCustomerInput{Name: req.Name, Email: req.Email})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(c))
}

func (h *Handler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Catalog.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(c))
}

type createProductRequest struct {
	Name  string          `json:"name" validate:"required"`
	Stock int             `json:"stock" validate:"gte=0"`
	Price decimal.Decimal `json:"price"`
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	p, err := h.svc.Catalog.CreateProduct(r.Context(), appcatalog.CreateProductInput{
		Name:  req.Name,
		Stock: req.Stock,
		Price: req.Price,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

type updateProductRequest struct {
	Name  *string          `json:"name" validate:"omitnil,min=1"`
	Stock *int             `json:"stock" validate:"omitnil,gte=0"`
	Price *decimal.Decimal `json:"price"`
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	p, err := h.svc.Catalog.UpdateProduct(r.Context(), appcatalog.UpdateProductInput{
		ID:    chi.URLParam(r, "id"),
		Name:  req.Name,
		Stock: req.Stock,
		Price: req.Price,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	customers, err := h.svc.Catalog.ListCustomers(r.Context(), page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, toCustomerResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	c, err := h.svc.Catalog.UpdateCustomer(r.Context(), appcatalog.UpdateCustomerInput{
		ID:    chi.URLParam(r, "id"),
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(c))
}

func (h *Handler) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	products, err := h.svc.Catalog.ListProducts(r.Context(), page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}
