package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"

	"github.com/jcmexdev/orders-service/internal/orders-service/core/domain"
	"github.com/jcmexdev/orders-service/internal/orders-service/core/ports"
	"github.com/jcmexdev/orders-service/internal/pkg/interceptors/constants"
)

const maxBodyBytes = 1 << 20

// Handler serves the orders API on top of a ports.OrderService.
type Handler struct {
	orderService ports.OrderService
	service      string
	version      string
	query        *schema.Decoder
}

func NewHandler(svc ports.OrderService, service, version string) *Handler {
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return &Handler{
		orderService: svc,
		service:      service,
		version:      version,
		query:        dec,
	}
}

// Root describes the service and the brokers it can route to.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ServiceInfo{
		Service:          h.service,
		Version:          h.version,
		AvailableBrokers: h.orderService.Brokers(),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// PlaceOrder validates the query and body together so a single 422 lists
// every problem.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	q, qerr := h.decodeQuery(r)

	var req domain.PlaceOrderRequest
	berr := decodeBody(w, r, &req)

	if err := domain.JoinValidation(qerr, berr); err != nil {
		writeServiceError(w, r, err)
		return
	}

	scope := h.scope(r, q)
	order, err := h.orderService.PlaceOrder(r.Context(), scope, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PlaceOrderResponse{
		Status:  statusSuccess,
		OrderID: order.OrderID,
		Message: "Order placed successfully",
		Order:   order,
	})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q, err := h.decodeQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	orders, err := h.orderService.ListOrders(r.Context(), h.scope(r, q))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListOrdersResponse{Status: statusSuccess, Orders: orders})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	q, err := h.decodeQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), h.scope(r, q), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	q, err := h.decodeQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	order, err := h.orderService.CancelOrder(r.Context(), h.scope(r, q), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CancelOrderResponse{
		Status:  statusSuccess,
		OrderID: order.OrderID,
		Message: "Order cancelled successfully",
		Order:   order,
	})
}

func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")

	q, err := h.decodeQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	entries, err := h.orderService.OrderHistory(r.Context(), h.scope(r, q), orderID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if len(entries) == 0 {
		writeError(w, r, http.StatusNotFound, msgNotFound, fmt.Sprintf("no journal entries for order %s", orderID))
		return
	}

	writeJSON(w, http.StatusOK, OrderHistoryResponse{OrderID: orderID, Events: entries})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "Not Found", fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path))
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed", fmt.Sprintf("%s is not allowed on %s", r.Method, r.URL.Path))
}

func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusUnauthorized, msgNotAuthenticated, "missing or invalid bearer token")
}

func (h *Handler) scope(r *http.Request, q OrderQuery) ports.Scope {
	idempKey, _ := r.Context().Value(constants.ContextKeyIdempotencyKey).(string)
	return ports.Scope{
		Broker:         q.Broker,
		UserID:         q.UserID,
		UseCache:       q.UseCache,
		IdempotencyKey: idempKey,
	}
}

// scopeParams are the query keys that pick the account a request acts on.
var scopeParams = []string{"broker", "user_id", "use_cache"}

func (h *Handler) decodeQuery(r *http.Request) (OrderQuery, error) {
	var q OrderQuery
	values := r.URL.Query()

	// The auth middleware and the decoder must agree on one broker.
	var repeated domain.ValidationErrors
	for _, k := range scopeParams {
		if len(values[k]) > 1 {
			repeated = append(repeated, domain.ValidationError{
				Loc: []string{"query", k}, Msg: "Parameter must be given once", Type: "multiple_values",
			})
		}
	}
	if len(repeated) > 0 {
		return q, repeated
	}

	err := h.query.Decode(&q, values)
	if err == nil {
		return q, nil
	}

	var multi schema.MultiError
	if !errors.As(err, &multi) {
		return q, domain.ValidationErrors{{Loc: []string{"query"}, Msg: err.Error(), Type: "parsing"}}
	}

	keys := make([]string, 0, len(multi))
	for k := range multi {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	verrs := make(domain.ValidationErrors, 0, len(keys))
	for _, k := range keys {
		verr := domain.ValidationError{Loc: []string{"query", k}, Msg: "Input could not be parsed", Type: "parsing"}
		var conv schema.ConversionError
		if errors.As(multi[k], &conv) && conv.Type != nil && conv.Type.Kind() == reflect.Bool {
			verr.Msg = "Input should be a valid boolean"
			verr.Type = "bool_parsing"
		}
		verrs = append(verrs, verr)
	}
	return q, verrs
}

// decodeBody reads exactly one JSON object into dst. An empty body decodes as
// {} so the field rules report what is missing.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		var extra json.RawMessage
		if err := dec.Decode(&extra); errors.Is(err, io.EOF) {
			return nil
		}
		return domain.ValidationErrors{{Loc: []string{"body"}, Msg: "JSON decode error: unexpected data after top-level value", Type: "json_invalid"}}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return domain.ValidationErrors{{
			Loc:  []string{"body", typeErr.Field},
			Msg:  fmt.Sprintf("Input should be a valid %s", typeErr.Type),
			Type: "type_error",
		}}
	}

	slog.DebugContext(r.Context(), "rejecting malformed JSON body", "error", err)
	return domain.ValidationErrors{{Loc: []string{"body"}, Msg: "JSON decode error: " + err.Error(), Type: "json_invalid"}}
}
