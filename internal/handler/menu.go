package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Nick0086/ManageSphere-sub000/internal/middleware"
	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/repository"
)

// MenuHandler covers category and menu item management for the owner side.
type MenuHandler struct {
	Menu *repository.MenuRepo
}

func NewMenuHandler(r *repository.MenuRepo) *MenuHandler {
	return &MenuHandler{Menu: r}
}

type categoryReq struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type categoryResp struct {
	UniqueID string `json:"unique_id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

type menuItemReq struct {
	CategoryID  string  `json:"category_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
}

type menuItemResp struct {
	UniqueID    string  `json:"unique_id"`
	CategoryID  string  `json:"category_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
}

func toCategoryResp(c model.Category) categoryResp {
	return categoryResp{UniqueID: c.UniqueID, Name: c.Name, Status: c.Status}
}

func toMenuItemResp(m model.MenuItem) menuItemResp {
	return menuItemResp{
		UniqueID:    m.UniqueID,
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		Price:       m.Price,
		Description: m.Description,
		Status:      m.Status,
	}
}

func normalizeStatus(s string) string {
	if s == model.StatusInactive {
		return model.StatusInactive
	}
	return model.StatusActive
}

func (h *MenuHandler) CreateCategory(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_NAME", "message": "category name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	cat := model.Category{UserID: profile.UniqueID, Name: req.Name, Status: normalizeStatus(req.Status)}
	if err := h.Menu.CreateCategory(ctx, &cat); err != nil {
		if errors.Is(err, repository.ErrDuplicateName) {
			return c.JSON(http.StatusBadRequest, echo.Map{"code": "DUPLICATE_NAME", "message": "a category with this name already exists"})
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"code": "CATEGORY_CREATED", "category": toCategoryResp(cat)})
}

func (h *MenuHandler) ListCategories(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	cats, err := h.Menu.ListCategories(ctx, profile.UniqueID)
	if err != nil {
		return serverError(c, err)
	}
	out := make([]categoryResp, 0, len(cats))
	for _, cat := range cats {
		out = append(out, toCategoryResp(cat))
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": out})
}

func (h *MenuHandler) UpdateCategory(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_NAME", "message": "category name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	cat := model.Category{
		UniqueID: c.Param("categoryId"),
		UserID:   profile.UniqueID,
		Name:     req.Name,
		Status:   normalizeStatus(req.Status),
	}
	if err := h.Menu.UpdateCategory(ctx, &cat); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"code": "CATEGORY_NOT_FOUND", "message": "category not found"})
		case errors.Is(err, repository.ErrDuplicateName):
			return c.JSON(http.StatusBadRequest, echo.Map{"code": "DUPLICATE_NAME", "message": "a category with this name already exists"})
		default:
			return serverError(c, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "CATEGORY_UPDATED", "category": toCategoryResp(cat)})
}

func (h *MenuHandler) DeleteCategory(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	if err := h.Menu.DeleteCategory(ctx, profile.UniqueID, c.Param("categoryId")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "CATEGORY_NOT_FOUND", "message": "category not found"})
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "CATEGORY_DELETED", "message": "category deleted"})
}

func (h *MenuHandler) CreateItem(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.CategoryID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "name and category_id are required"})
	}
	if req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "price must not be negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	item := model.MenuItem{
		CategoryID:  req.CategoryID,
		UserID:      profile.UniqueID,
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Status:      normalizeStatus(req.Status),
	}
	if err := h.Menu.CreateItem(ctx, &item); err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"code": "ITEM_CREATED", "item": toMenuItemResp(item)})
}

// ListItems returns the owner's items, optionally filtered by ?categoryId=.
func (h *MenuHandler) ListItems(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	items, err := h.Menu.ListItems(ctx, profile.UniqueID, c.QueryParam("categoryId"))
	if err != nil {
		return serverError(c, err)
	}
	out := make([]menuItemResp, 0, len(items))
	for _, it := range items {
		out = append(out, toMenuItemResp(it))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *MenuHandler) UpdateItem(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.CategoryID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "name and category_id are required"})
	}
	if req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "price must not be negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	item := model.MenuItem{
		UniqueID:    c.Param("itemId"),
		CategoryID:  req.CategoryID,
		UserID:      profile.UniqueID,
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Status:      normalizeStatus(req.Status),
	}
	if err := h.Menu.UpdateItem(ctx, &item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "ITEM_NOT_FOUND", "message": "menu item not found"})
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "ITEM_UPDATED", "item": toMenuItemResp(item)})
}

func (h *MenuHandler) DeleteItem(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	if err := h.Menu.DeleteItem(ctx, profile.UniqueID, c.Param("itemId")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "ITEM_NOT_FOUND", "message": "menu item not found"})
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "ITEM_DELETED", "message": "menu item deleted"})
}
