package http

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"golang-watchlist/internal/dto"
	"golang-watchlist/internal/model"
	"golang-watchlist/internal/repository"
	"golang-watchlist/internal/service"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupStocks(base *echo.Group) {
	stockGroup := base.Group("/stocks")
	stockGroup.GET("", h.listStocks)
	stockGroup.POST("", h.createStock)
	stockGroup.PUT("/:symbol", h.editStock)
	stockGroup.PATCH("/:symbol/checklist", h.toggleChecklist)
	stockGroup.POST("/:symbol/recheck", h.recheckStock)
}

func (h *HttpAPIHandler) listStocks(c echo.Context) error {
	ctx := c.Request().Context()

	stocks, err := h.service.WatchlistService.List(ctx, h.partitionKey(c))
	if err != nil {
		return h.errorResponse(c, err, "failed to list stocks")
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("success", stocks))
}

func (h *HttpAPIHandler) createStock(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.CreateStockRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	stock, err := h.service.WatchlistService.Create(ctx, h.partitionKey(c), *req)
	if err != nil {
		return h.errorResponse(c, err, "failed to add stock")
	}

	return c.JSON(http.StatusCreated, dto.NewBaseResponse(http.StatusCreated, "created", stock))
}

func (h *HttpAPIHandler) editStock(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.UpdateStockRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	stock, err := h.service.WatchlistService.Edit(ctx, h.partitionKey(c), c.Param("symbol"), *req)
	if err != nil {
		return h.errorResponse(c, err, "failed to edit stock")
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("success", stock))
}

func (h *HttpAPIHandler) toggleChecklist(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.ToggleChecklistRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	stock, err := h.service.WatchlistService.ToggleChecklist(ctx, h.partitionKey(c), c.Param("symbol"), *req)
	if err != nil {
		return h.errorResponse(c, err, "failed to toggle checklist flag")
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("success", stock))
}

func (h *HttpAPIHandler) recheckStock(c echo.Context) error {
	ctx := c.Request().Context()

	stock, err := h.service.WatchlistService.Recheck(ctx, h.partitionKey(c), c.Param("symbol"))
	if err != nil {
		return h.errorResponse(c, err, "failed to recheck stock")
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("success", stock))
}

// partitionKey reads the caller's CPF header and remembers it under the
// caller's own session token for the stream reconnect fallback. Validation
// happens in the service layer.
func (h *HttpAPIHandler) partitionKey(c echo.Context) string {
	key := c.Request().Header.Get(HeaderCPF)
	if key != "" {
		h.service.SessionStore.Remember(h.sessionToken(c), key)
	}
	return key
}

// sessionToken reads the session cookie, minting one when the client has
// none yet so a later stream reconnect can find its own partition.
func (h *HttpAPIHandler) sessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token := newSessionToken()
	if token == "" {
		return ""
	}
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func newSessionToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

func (h *HttpAPIHandler) errorResponse(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrInvalidCPF):
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid cpf"))
	case errors.Is(err, model.ErrUnknownChecklistFlag):
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	case errors.Is(err, repository.ErrStockNotFound):
		return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, "stock not found", nil))
	default:
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, fallback, nil))
	}
}
