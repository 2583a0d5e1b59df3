package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Nick0086/ManageSphere-sub000/internal/middleware"
	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/queue"
	"github.com/Nick0086/ManageSphere-sub000/internal/repository"
	queue_publisher "github.com/Nick0086/ManageSphere-sub000/internal/service"
)

// OrderHandler covers the owner's order board and the customer-facing
// submission flow reached through a table's QR code.
type OrderHandler struct {
	Orders *repository.OrderRepo
	Tables *repository.TableRepo
	Menu   *repository.MenuRepo
}

func NewOrderHandler(orders *repository.OrderRepo, tables *repository.TableRepo, menu *repository.MenuRepo) *OrderHandler {
	return &OrderHandler{Orders: orders, Tables: tables, Menu: menu}
}

type orderLineReq struct {
	ItemID   string `json:"item_id"`
	Quantity uint32 `json:"quantity"`
}

type submitOrderReq struct {
	CustomerName string         `json:"customer_name"`
	Items        []orderLineReq `json:"items"`
}

type orderItemResp struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity uint32  `json:"quantity"`
}

type orderResp struct {
	UniqueID     string    `json:"unique_id"`
	TableID      string    `json:"table_id"`
	CustomerName string    `json:"customer_name"`
	Status       string    `json:"status"`
	Total        float64   `json:"total"`
	CreatedAt    time.Time `json:"created_at"`
}

func toOrderResp(o model.Order) orderResp {
	return orderResp{
		UniqueID:     o.UniqueID,
		TableID:      o.TableID,
		CustomerName: o.CustomerName,
		Status:       o.Status,
		Total:        o.Total,
		CreatedAt:    o.CreatedAt,
	}
}

var validOrderStatuses = map[string]bool{
	model.OrderStatusPending:   true,
	model.OrderStatusPreparing: true,
	model.OrderStatusServed:    true,
	model.OrderStatusCancelled: true,
}

// Submit accepts a customer order placed against a table's QR identifier.
// Prices and names are resolved server-side from the owner's active menu so a
// tampered client cannot set its own prices.
func (h *OrderHandler) Submit(c echo.Context) error {
	var req submitOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "invalid request body"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "order must contain at least one item"})
	}
	req.CustomerName = strings.TrimSpace(req.CustomerName)

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	table, err := h.Tables.GetByQRCode(ctx, c.Param("qrCode"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "TABLE_NOT_FOUND", "message": "no active table for this code"})
		}
		return serverError(c, err)
	}

	_, menuItems, err := h.Menu.ActiveMenu(ctx, table.UserID)
	if err != nil {
		return serverError(c, err)
	}
	byID := make(map[string]model.MenuItem, len(menuItems))
	for _, it := range menuItems {
		byID[it.UniqueID] = it
	}

	var (
		items []model.OrderItem
		total float64
	)
	for _, line := range req.Items {
		if line.Quantity == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "quantity must be at least 1"})
		}
		it, ok := byID[line.ItemID]
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"code": "ITEM_NOT_FOUND", "message": "item " + line.ItemID + " is not on the menu"})
		}
		items = append(items, model.OrderItem{
			ItemID:   it.UniqueID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: line.Quantity,
		})
		total += it.Price * float64(line.Quantity)
	}

	order := model.Order{
		UserID:       table.UserID,
		TableID:      table.UniqueID,
		CustomerName: req.CustomerName,
		Status:       model.OrderStatusPending,
		Total:        total,
	}
	if err := h.Orders.Create(ctx, &order, items); err != nil {
		return serverError(c, err)
	}

	// Broker publish is best effort; an accepted order is never rolled back
	// because the broker is down.
	event := queue.OrderPlacedEvent{
		OrderID:      order.UniqueID,
		UserID:       order.UserID,
		TableID:      order.TableID,
		TableName:    table.Name,
		CustomerName: order.CustomerName,
		Total:        order.Total,
		PlacedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	for _, it := range items {
		event.Items = append(event.Items, queue.OrderLine{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishOrderPlaced(pubCtx, event)
	}()

	return c.JSON(http.StatusCreated, echo.Map{"code": "ORDER_PLACED", "orderId": order.UniqueID, "total": order.Total})
}

func (h *OrderHandler) List(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	orders, err := h.Orders.ListByOwner(ctx, profile.UniqueID)
	if err != nil {
		return serverError(c, err)
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o))
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": out})
}

func (h *OrderHandler) Detail(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	order, items, err := h.Orders.GetWithItems(ctx, profile.UniqueID, c.Param("orderId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "ORDER_NOT_FOUND", "message": "order not found"})
		}
		return serverError(c, err)
	}
	lines := make([]orderItemResp, 0, len(items))
	for _, it := range items {
		lines = append(lines, orderItemResp{ItemID: it.ItemID, Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}
	return c.JSON(http.StatusOK, echo.Map{"order": toOrderResp(order), "items": lines})
}

type orderStatusReq struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	var req orderStatusReq
	if err := c.Bind(&req); err != nil || !validOrderStatuses[req.Status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_STATUS", "message": "status must be pending, preparing, served or cancelled"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	if err := h.Orders.UpdateStatus(ctx, profile.UniqueID, c.Param("orderId"), req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "ORDER_NOT_FOUND", "message": "order not found"})
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "ORDER_UPDATED", "message": "order status updated"})
}
