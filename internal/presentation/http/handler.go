package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	appcatalog "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/errs"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	componentHTTPHandler = "http_server"
	maxBodyBytes         = 1 << 20
)

// Services are the use cases exposed over HTTP.
type Services struct {
	CreateOrder      application.UseCase[apporder.CreateOrderInput, *domorder.Order]
	TransitionStatus application.UseCase[apporder.TransitionStatusInput, *domorder.Order]
	Orders           *apporder.QueryService
	Pay              application.UseCase[apppayment.PayInput, *dompay.Payment]
	Payments         *apppayment.QueryService
	Catalog          *appcatalog.Service
}

type Handler struct {
	svc            Services
	log            observability.Logger
	requests       observability.Counter
	duration       observability.Histogram
	requestTimeout time.Duration
}

func NewHandler(svc Services, tel observability.Observability, requestTimeout time.Duration) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Handler{
		svc:            svc,
		log:            tel.Logger().With(observability.F("component", componentHTTPHandler)),
		requests:       m.Counter(observability.MHTTPRequests),
		duration:       m.Histogram(observability.MHTTPRequestDuration),
		requestTimeout: requestTimeout,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	})

	h.handle(r, http.MethodGet, "/health", h.handleHealth)

	h.handle(r, http.MethodPost, "/customers", h.handleCreateCustomer)
	h.handle(r, http.MethodGet, "/customers", h.handleListCustomers)
	h.handle(r, http.MethodGet, "/customers/{id}", h.handleGetCustomer)
	h.handle(r, http.MethodPut, "/customers/{id}", h.handleUpdateCustomer)
	h.handle(r, http.MethodDelete, "/customers/{id}", h.handleDeleteCustomer)

	h.handle(r, http.MethodPost, "/products", h.handleCreateProduct)
	h.handle(r, http.MethodGet, "/products", h.handleListProducts)
	h.handle(r, http.MethodGet, "/products/{id}", h.handleGetProduct)
	h.handle(r, http.MethodPatch, "/products/{id}", h.handleUpdateProduct)
	h.handle(r, http.MethodDelete, "/products/{id}", h.handleDeleteProduct)

	h.handle(r, http.MethodPost, "/orders", h.handleCreateOrder)
	h.handle(r, http.MethodGet, "/orders", h.handleListOrders)
	h.handle(r, http.MethodGet, "/orders/{id}", h.handleGetOrder)
	h.handle(r, http.MethodPatch, "/orders/{id}/status", h.handleTransitionStatus)
	h.handle(r, http.MethodGet, "/orders/{id}/payment", h.handleGetOrderPayment)

	h.handle(r, http.MethodPost, "/payments", h.handlePay)
	h.handle(r, http.MethodGet, "/payments/{id}", h.handleGetPayment)

	return r
}

// handle wires one route as Trace -> request logger -> metrics -> access log -> timeout -> handler.
func (h *Handler) handle(r chi.Router, method, route string, fn http.HandlerFunc) {
	var next http.Handler = fn
	next = withTimeout(h.requestTimeout, next)
	next = withAccessLog(route, h.log, next)
	next = withHTTPMetrics(route, h.requests, h.duration, next)
	next = withRequestLogger(h.log, next)
	next = withTrace(route, next)
	r.Method(method, route, next)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w: %w", errs.ErrInvalidRequest, err)
	}
	return validateRequest(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps an error kind to its HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, errs.ErrInvalidRequest):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, errs.ErrInsufficientStock):
		return http.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, errs.ErrDuplicatePayment):
		return http.StatusConflict, "DUPLICATE_PAYMENT"
	case errors.Is(err, errs.ErrInvalidStatusTransition):
		return http.StatusUnprocessableEntity, "INVALID_STATUS_TRANSITION"
	case errors.Is(err, errs.ErrInvalidOrderState):
		return http.StatusUnprocessableEntity, "INVALID_ORDER_STATE"
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logctx.FromOr(r.Context(), h.log).Error("http_internal_error", observability.F("error", msg))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
