package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/marketplace-ops/internal/assignment"
	"github.com/vasiliy-maslov/marketplace-ops/internal/order"
)

type OrderItemRequest struct {
	ProductID   *uuid.UUID `json:"product_id"`
	ProductName string     `json:"product_name" validate:"required"`
	Quantity    int        `json:"quantity" validate:"gt=0"`
	Price       float64    `json:"price" validate:"gte=0"`
	Image       *string    `json:"image"`
}

type CreateOrderRequest struct {
	StoreID         *uuid.UUID         `json:"store_id"`
	Type            string             `json:"type" validate:"omitempty,oneof=delivery service"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress *string            `json:"delivery_address"`
	DeliveryLat     *float64           `json:"delivery_lat"`
	DeliveryLng     *float64           `json:"delivery_lng"`
	CustomerName    *string            `json:"customer_name"`
	CustomerPhone   *string            `json:"customer_phone"`
	Notes           *string            `json:"notes"`
}

type UpdateOrderRequest struct {
	Status string `json:"status"`
}

// AssignRequest keeps the camelCase keys the dashboard sends.
type AssignRequest struct {
	OrderID  string `json:"orderId"`
	WorkerID string `json:"workerId"`
}

type OrderHandler struct {
	service  order.Service
	assigner assignment.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service, assigner assignment.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		assigner: assigner,
		validate: newValidator(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/v1/orders", h.handleListOrders)
	router.Post("/api/v1/orders", h.handleCreateOrder)
	router.Get("/api/v1/orders/{id}", h.handleGetOrder)
	router.Put("/api/v1/orders/{id}", h.handleUpdateOrder)
	router.Post("/api/operation/assign", h.handleAssign)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, order.DefaultPageLimit, order.MaxPageLimit)
	filter := order.Filter{
		Status: order.Status(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]any{"orders": orders, "page": page, "limit": limit})
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	input := order.CreateInput{
		StoreID:         req.StoreID,
		Type:            order.Type(req.Type),
		Items:           make([]order.CreateItemInput, 0, len(req.Items)),
		DeliveryAddress: req.DeliveryAddress,
		DeliveryLat:     req.DeliveryLat,
		DeliveryLng:     req.DeliveryLng,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		Notes:           req.Notes,
	}
	if u, ok := UserFromContext(r.Context()); ok {
		input.UserID = &u.ID
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, order.CreateItemInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Image:       item.Image,
		})
	}

	created, err := h.service.CreateOrder(r.Context(), input)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusCreated, map[string]any{"order": created})
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	o, err := h.service.GetOrderByID(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]any{"order": o})
}

func (h *OrderHandler) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req UpdateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateOrderStatus(r.Context(), id, order.Status(req.Status))
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]any{"order": updated})
}

func (h *OrderHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	result, err := h.assigner.Assign(r.Context(), req.OrderID, req.WorkerID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, result)
}
