package api

import (
	"time"

	"BtcPulse/internal/channel"
	models "BtcPulse/internal/domain/models"
	xhttp "BtcPulse/pkg/http"
	xlogger "BtcPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AlertsEchoHandler adapts AlertsHandler to Echo routes. It owns binding,
// validation and response shaping; all reads go through the core handler.
type AlertsEchoHandler struct {
	logger *xlogger.Logger
	core   *AlertsHandler
	hub    *channel.WSHub
}

func NewAlertsEchoHandler(logger *xlogger.Logger, core *AlertsHandler, hub *channel.WSHub) *AlertsEchoHandler {
	core.SetLogger(logger)
	return &AlertsEchoHandler{logger: logger, core: core, hub: hub}
}

func (h *AlertsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/snapshot/latest", h.LatestSnapshot)
	g.GET("/rules", h.Rules)
	g.GET("/cooldowns", h.Cooldowns)
	g.GET("/phase", h.Phase)
	g.GET("/alerts/recent", h.RecentAlerts)
	g.POST("/rules/test", h.TestRule)
	g.POST("/rules/reload", h.Reload)

	// /metrics is registered by the server itself
	if h.hub != nil {
		e.GET("/ws/alerts", echo.WrapHandler(h.hub))
	}
}

func (h *AlertsEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.core.Status(c.Request().Context()))
}

func (h *AlertsEchoHandler) LatestSnapshot(c echo.Context) error {
	snap := h.core.LatestSnapshot()
	if snap == nil {
		return xhttp.NotFoundResponse(c, "no snapshot collected yet")
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, snap)
}

func (h *AlertsEchoHandler) Rules(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.core.Rules())
}

func (h *AlertsEchoHandler) Cooldowns(c echo.Context) error {
	req := &models.CooldownQueryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	entries, err := h.core.Cooldowns(c.Request().Context(), req.RuleID)
	if err != nil {
		h.logger.Error("cooldowns query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, entries)
}

func (h *AlertsEchoHandler) Phase(c echo.Context) error {
	report := h.core.Phase()
	if report == nil {
		return xhttp.NotFoundResponse(c, "no snapshot collected yet")
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, report)
}

func (h *AlertsEchoHandler) RecentAlerts(c echo.Context) error {
	start := time.Now()
	req := &models.RecentAlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.core.Allow(c.RealIP(), "recent", 5, 2) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	list, err := h.core.RecentAlerts(c.Request().Context(), req.Limit, req.Severity)
	if err != nil {
		h.logger.Error("recent alerts error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.logger.Debug("recent alerts served",
		xlogger.Int("count", len(list)),
		xlogger.Duration("took", time.Since(start)),
	)
	return xhttp.ListResponse(c, list, int64(len(list)))
}

func (h *AlertsEchoHandler) TestRule(c echo.Context) error {
	req := &models.RuleTestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.core.Allow(c.RealIP(), "test", 3, 1) {
		return xhttp.DataResponse(c, 429, "rate limited")
	}

	res, err := h.core.TestRule(c.Request().Context(), req)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AlertsEchoHandler) Reload(c echo.Context) error {
	res, err := h.core.Reload()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
