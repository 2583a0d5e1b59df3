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

// TableHandler manages the owner's physical tables and their QR identifiers.
type TableHandler struct {
	Tables *repository.TableRepo
}

func NewTableHandler(r *repository.TableRepo) *TableHandler {
	return &TableHandler{Tables: r}
}

type tableReq struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type tableResp struct {
	UniqueID string `json:"unique_id"`
	Name     string `json:"name"`
	QRCode   string `json:"qr_code"`
	Status   string `json:"status"`
}

func toTableResp(t model.Table) tableResp {
	return tableResp{UniqueID: t.UniqueID, Name: t.Name, QRCode: t.QRCode, Status: t.Status}
}

func (h *TableHandler) Create(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_NAME", "message": "table name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	t := model.Table{UserID: profile.UniqueID, Name: req.Name, Status: normalizeStatus(req.Status)}
	if err := h.Tables.Create(ctx, &t); err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"code": "TABLE_CREATED", "table": toTableResp(t)})
}

func (h *TableHandler) List(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	tables, err := h.Tables.List(ctx, profile.UniqueID)
	if err != nil {
		return serverError(c, err)
	}
	out := make([]tableResp, 0, len(tables))
	for _, t := range tables {
		out = append(out, toTableResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": out})
}

// Update changes name and status. The QR code is fixed at creation so printed
// stickers never go stale.
func (h *TableHandler) Update(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_INPUT", "message": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "INVALID_NAME", "message": "table name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	t := model.Table{
		UniqueID: c.Param("tableId"),
		UserID:   profile.UniqueID,
		Name:     req.Name,
		Status:   normalizeStatus(req.Status),
	}
	if err := h.Tables.Update(ctx, &t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "TABLE_NOT_FOUND", "message": "table not found"})
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "TABLE_UPDATED", "message": "table updated"})
}

func (h *TableHandler) Delete(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	if err := h.Tables.Delete(ctx, profile.UniqueID, c.Param("tableId")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "TABLE_NOT_FOUND", "message": "table not found"})
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "TABLE_DELETED", "message": "table deleted"})
}
