package http

import (
	"context"

	"golang-watchlist/internal/service"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// HeaderCPF carries the caller's partition key on every watchlist request.
const HeaderCPF = "X-Watchlist-CPF"

// SessionCookie identifies a browser session across requests, so the stream
// reconnect fallback only ever sees that session's own partition key.
const SessionCookie = "watchlist_session"

type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
}

func NewHttpAPIHandler(ctx context.Context, echo *echo.Echo, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api/v1")
	h.SetupStocks(base)
	h.SetupStream(base)
}
