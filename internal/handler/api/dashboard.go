package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"FraudDash/internal/domain/models"
	"FraudDash/internal/services/features"
	"FraudDash/internal/services/scoring"
	"FraudDash/internal/usecase"
	xhttp "FraudDash/pkg/http"
	xlogger "FraudDash/pkg/logger"
)

// DashboardHandler exposes the dashboard flows over HTTP.
type DashboardHandler struct {
	logger *xlogger.Logger
	dash   *usecase.Dashboard
	mw     []echo.MiddlewareFunc
}

func NewDashboardHandler(logger *xlogger.Logger, dash *usecase.Dashboard, mw ...echo.MiddlewareFunc) *DashboardHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &DashboardHandler{logger: logger.With("api"), dash: dash, mw: mw}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.mw...)

	g.POST("/predict", h.Predict)
	g.GET("/predict", h.PredictionState)
	g.DELETE("/predict", h.ClearPrediction)

	g.POST("/compare", h.Compare)
	g.GET("/compare", h.ComparisonState)
	g.PUT("/compare/active", h.SelectModel)

	g.GET("/metrics", h.Metrics)
	g.POST("/metrics/refresh", h.RefreshMetrics)

	g.GET("/threshold", h.Threshold)
	g.PUT("/threshold", h.SetThreshold)
	g.GET("/threshold/query", h.QueryThreshold)
}

func (h *DashboardHandler) Predict(c echo.Context) error {
	req := &models.FeaturesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, err := h.dash.Prediction.Submit(c.Request().Context(), req.Features)
	if err != nil {
		return h.fail(c, "predict", err)
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *DashboardHandler) PredictionState(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.dash.Prediction.View())
}

func (h *DashboardHandler) ClearPrediction(c echo.Context) error {
	h.dash.Prediction.Clear()
	return xhttp.NoContentResponse(c)
}

func (h *DashboardHandler) Compare(c echo.Context) error {
	req := &models.FeaturesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, err := h.dash.Comparison.Compare(c.Request().Context(), req.Features)
	if err != nil {
		return h.fail(c, "compare", err)
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *DashboardHandler) ComparisonState(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.dash.Comparison.View())
}

func (h *DashboardHandler) SelectModel(c echo.Context) error {
	req := &models.SelectModelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, err := h.dash.Comparison.Select(models.ModelID(req.Model))
	if err != nil {
		return h.fail(c, "select model", err)
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *DashboardHandler) Metrics(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.dash.Metrics.View())
}

func (h *DashboardHandler) RefreshMetrics(c echo.Context) error {
	view, err := h.dash.RefreshMetrics(c.Request().Context())
	if err != nil {
		return h.fail(c, "refresh metrics", err)
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *DashboardHandler) Threshold(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.dash.Threshold.View())
}

// SetThreshold schedules a debounced fetch and answers before it runs.
func (h *DashboardHandler) SetThreshold(c echo.Context) error {
	req := &models.ThresholdRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.dash.Threshold.Set(req.Threshold); err != nil {
		return h.fail(c, "set threshold", err)
	}
	return xhttp.AcceptedResponse(c, h.dash.Threshold.View())
}

func (h *DashboardHandler) QueryThreshold(c echo.Context) error {
	req := &models.ThresholdQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, err := h.dash.Threshold.Query(c.Request().Context(), req.Threshold)
	if err != nil {
		return h.fail(c, "query threshold", err)
	}
	return xhttp.SuccessResponse(c, view)
}

// fail maps a flow error onto the response envelope.
func (h *DashboardHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		h.logger.Error(op+" failed", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.Error(err), xlogger.Int("status", appErr.Status))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	var (
		verr *features.ValidationError
		rerr *usecase.RangeError
		serr *scoring.Error
	)
	switch {
	case errors.As(err, &verr):
		return xhttp.ValidationFailedError("features", verr.Error()).
			WithParam("expected", models.FeatureCount).
			WithParam("got", verr.Count)
	case errors.As(err, &rerr):
		return xhttp.ValidationFailedError("threshold", rerr.Error()).
			WithParam("min", rerr.Min).
			WithParam("max", rerr.Max)
	case errors.Is(err, usecase.ErrUnknownModel):
		return xhttp.ValidationFailedError("model", err.Error())
	case errors.Is(err, usecase.ErrModelUnavailable):
		return xhttp.ModelUnavailableError(err.Error())
	case errors.Is(err, usecase.ErrSuperseded):
		return xhttp.SupersededError(err.Error())
	case errors.As(err, &serr):
		return xhttp.BadGatewayError(serr.Message).
			WithParam("endpoint", serr.Endpoint).
			WithParam("kind", string(serr.Kind))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return xhttp.CancelledError(err)
	default:
		return xhttp.InternalError(err.Error()).WithError(err)
	}
}
