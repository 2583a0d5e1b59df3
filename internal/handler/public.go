package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Nick0086/ManageSphere-sub000/internal/repository"
)

// PublicHandler serves the unauthenticated customer view reached by scanning
// a table's QR sticker.
type PublicHandler struct {
	Tables *repository.TableRepo
	Menu   *repository.MenuRepo
}

func NewPublicHandler(tables *repository.TableRepo, menu *repository.MenuRepo) *PublicHandler {
	return &PublicHandler{Tables: tables, Menu: menu}
}

type publicCategoryResp struct {
	UniqueID string         `json:"unique_id"`
	Name     string         `json:"name"`
	Items    []menuItemResp `json:"items"`
}

// ViewMenu resolves the QR code to its table and returns the owner's active
// categories with their active items grouped underneath.
func (h *PublicHandler) ViewMenu(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	table, err := h.Tables.GetByQRCode(ctx, c.Param("qrCode"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "TABLE_NOT_FOUND", "message": "no active table for this code"})
		}
		return serverError(c, err)
	}

	cats, items, err := h.Menu.ActiveMenu(ctx, table.UserID)
	if err != nil {
		return serverError(c, err)
	}

	grouped := make(map[string][]menuItemResp, len(cats))
	for _, it := range items {
		grouped[it.CategoryID] = append(grouped[it.CategoryID], toMenuItemResp(it))
	}
	out := make([]publicCategoryResp, 0, len(cats))
	for _, cat := range cats {
		sectionItems := grouped[cat.UniqueID]
		if sectionItems == nil {
			sectionItems = []menuItemResp{}
		}
		out = append(out, publicCategoryResp{UniqueID: cat.UniqueID, Name: cat.Name, Items: sectionItems})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"table": echo.Map{"unique_id": table.UniqueID, "name": table.Name},
		"menu":  out,
	})
}
