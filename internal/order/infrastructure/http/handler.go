package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	invdomain "github.com/dmehra2102/Sales-Order-Management/internal/inventory/domain"
	"github.com/dmehra2102/Sales-Order-Management/internal/order/application"
	"github.com/dmehra2102/Sales-Order-Management/internal/order/domain"
)

const maxBodyBytes = 1 << 20

type OrderService interface {
	Create(ctx context.Context, cmd application.CreateOrderCommand) (domain.Order, error)
	Get(ctx context.Context, actor domain.Actor, orderID string) (domain.Order, error)
	List(ctx context.Context, actor domain.Actor, status domain.OrderStatus) ([]domain.Order, error)
	History(ctx context.Context, actor domain.Actor, orderID string) ([]domain.StatusHistory, error)
	Update(ctx context.Context, cmd application.UpdateOrderCommand) (domain.Order, error)
	Delete(ctx context.Context, actor domain.Actor, orderID string) error
	Transition(ctx context.Context, actor domain.Actor, orderID string, action domain.Action, notes string) (domain.Order, error)
}

type StockService interface {
	GetStock(ctx context.Context, productID string) (invdomain.StockLevel, error)
	Restock(ctx context.Context, actor domain.Actor, productID string, amount int) (invdomain.StockLevel, error)
}

// actionRoutes maps URL segments to workflow actions.
var actionRoutes = map[string]domain.Action{
	"submit":         domain.ActionSubmit,
	"approve":        domain.ActionApprove,
	"reject":         domain.ActionReject,
	"start-packing":  domain.ActionStartPacking,
	"mark-packed":    domain.ActionMarkPacked,
	"mark-shipped":   domain.ActionMarkShipped,
	"mark-delivered": domain.ActionMarkDelivered,
	"fulfill":        domain.ActionFulfill,
	"reopen":         domain.ActionReopen,
}

type Handler struct {
	log      *slog.Logger
	orders   OrderService
	stock    StockService
	validate *validator.Validate
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, orders OrderService, stock StockService) *Handler {
	return &Handler{
		log:      log,
		orders:   orders,
		stock:    stock,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   otel.Tracer("order-http"),
	}
}

// Routes mounts the order and stock endpoints. Every route requires an actor.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Authenticate)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getOrder)
			r.Patch("/", h.updateOrder)
			r.Delete("/", h.deleteOrder)
			r.Get("/history", h.orderHistory)
			r.Post("/{action}", h.transition)
		})
	})
	r.Route("/products/{id}", func(r chi.Router) {
		r.Get("/stock", h.getStock)
		r.Post("/restock", h.restock)
	})
	return r
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "CreateOrder")
	defer span.End()

	var req createOrderReq
	if err := h.decode(r, &req, true); err != nil {
		h.fail(w, span, err)
		return
	}
	cmd, err := req.command(actorFrom(ctx))
	if err != nil {
		h.fail(w, span, err)
		return
	}
	o, err := h.orders.Create(ctx, cmd)
	if err != nil {
		h.fail(w, span, err)
		return
	}
	span.SetAttributes(attribute.String("order.id", o.ID))
	writeJSON(w, http.StatusCreated, toOrderResp(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "ListOrders")
	defer span.End()

	status := domain.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	orders, err := h.orders.List(ctx, actorFrom(ctx), status)
	if err != nil {
		h.fail(w, span, err)
		return
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "GetOrder")
	defer span.End()

	o, err := h.orders.Get(ctx, actorFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "UpdateOrder")
	defer span.End()

	var req updateOrderReq
	if err := h.decode(r, &req, true); err != nil {
		h.fail(w, span, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.fail(w, span, err)
		return
	}
	o, err := h.orders.Update(ctx, application.UpdateOrderCommand{
		Actor:   actorFrom(ctx),
		OrderID: chi.URLParam(r, "id"),
		Patch:   patch,
	})
	if err != nil {
		h.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "DeleteOrder")
	defer span.End()

	if err := h.orders.Delete(ctx, actorFrom(ctx), chi.URLParam(r, "id")); err != nil {
		h.fail(w, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "OrderHistory")
	defer span.End()

	entries, err := h.orders.History(ctx, actorFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, span, err)
		return
	}
	out := make([]historyResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHistoryResp(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": out})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	action, ok := actionRoutes[chi.URLParam(r, "action")]
	if !ok {
		writeErrorBody(w, http.StatusNotFound, errorBody{Code: "not_found", Message: "unknown action"})
		return
	}
	ctx, span := h.start(r, "Transition")
	defer span.End()
	span.SetAttributes(attribute.String("order.action", string(action)))

	var req transitionReq
	if err := h.decode(r, &req, false); err != nil {
		h.fail(w, span, err)
		return
	}
	o, err := h.orders.Transition(ctx, actorFrom(ctx), chi.URLParam(r, "id"), action, req.Notes)
	if err != nil {
		h.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "GetStock")
	defer span.End()

	level, err := h.stock.GetStock(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResp{ProductID: level.ProductID, Quantity: level.Quantity})
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.start(r, "Restock")
	defer span.End()

	var req restockReq
	if err := h.decode(r, &req, true); err != nil {
		h.fail(w, span, err)
		return
	}
	level, err := h.stock.Restock(ctx, actorFrom(ctx), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		h.fail(w, span, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResp{ProductID: level.ProductID, Quantity: level.Quantity})
}

func (h *Handler) start(r *http.Request, name string) (context.Context, trace.Span) {
	ctx, span := h.tracer.Start(r.Context(), name)
	if id := chi.URLParam(r, "id"); id != "" {
		span.SetAttributes(attribute.String("resource.id", id))
	}
	return ctx, span
}

// decode reads a JSON body into dst and validates it. An empty body is only
// accepted when required is false.
func (h *Handler) decode(r *http.Request, dst any, required bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && !required {
			return nil
		}
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}
	return h.validate.Struct(dst)
}

func (h *Handler) fail(w http.ResponseWriter, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	writeError(w, h.log, err)
}
