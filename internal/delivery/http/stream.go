package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang-watchlist/internal/dto"
	"golang-watchlist/internal/service"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupStream(base *echo.Group) {
	base.GET("/stocks/stream", h.streamStocks)
}

// streamStocks pushes the caller's partition view over server-sent events.
// Every event is a full snapshot; the client replaces its state wholesale.
func (h *HttpAPIHandler) streamStocks(c echo.Context) error {
	ctx := c.Request().Context()

	partitionKey := c.QueryParam("cpf")
	if partitionKey == "" {
		// Reconnects may drop the query string; fall back to the partition
		// this session last authenticated with. The cookie rides along on
		// EventSource requests, so another session's key is unreachable.
		if cookie, err := c.Cookie(SessionCookie); err == nil {
			if last, ok := h.service.SessionStore.LastCPF(cookie.Value); ok {
				partitionKey = last
			}
		}
	}

	view, err := h.service.SyncViewService.OpenView(ctx, partitionKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCPF) {
			return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid cpf"))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to open stream", nil))
	}
	defer view.Close()

	h.service.SessionStore.Remember(h.sessionToken(c), partitionKey)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot, ok := <-view.Updates():
			if !ok {
				return nil
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				return nil
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
