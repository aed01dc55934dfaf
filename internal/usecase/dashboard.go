package usecase

import (
	"context"

	"FraudDash/internal/domain/models"
	"FraudDash/pkg/logger"
)

// Invalidator drops cached threshold answers.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Dashboard is the single session a FraudDash process serves: four flows,
// each with its own result slot.
type Dashboard struct {
	Prediction *Prediction
	Comparison *Comparison
	Metrics    *MetricsPoller
	Threshold  *ThresholdExplorer

	inv Invalidator
	log *logger.Logger
}

// NewDashboard groups the flows. inv may be nil.
func NewDashboard(p *Prediction, c *Comparison, m *MetricsPoller, t *ThresholdExplorer, inv Invalidator, l *logger.Logger) *Dashboard {
	if l == nil {
		l = logger.NewNop()
	}
	return &Dashboard{Prediction: p, Comparison: c, Metrics: m, Threshold: t, inv: inv, log: l.With("dashboard")}
}

// Start launches the background flows.
func (d *Dashboard) Start(ctx context.Context) {
	d.Metrics.Start(ctx)
	d.Threshold.Start(ctx)
}

// Stop halts the background flows and cancels requests in flight.
func (d *Dashboard) Stop() {
	d.Threshold.Stop()
	d.Metrics.Stop()
}

// RefreshMetrics forces a metrics fetch. Cached threshold answers are dropped
// first, since new headline metrics usually mean a new model.
func (d *Dashboard) RefreshMetrics(ctx context.Context) (models.MetricsView, error) {
	if d.inv != nil {
		if err := d.inv.Invalidate(ctx); err != nil {
			d.log.Warn("invalidate threshold cache", logger.Error(err))
		}
	}
	return d.Metrics.Refresh(ctx)
}

// View renders every slot.
func (d *Dashboard) View() models.DashboardView {
	return models.DashboardView{
		Prediction: d.Prediction.View(),
		Comparison: d.Comparison.View(),
		Metrics:    d.Metrics.View(),
		Threshold:  d.Threshold.View(),
	}
}

// Subscribe registers fn on every flow.
func (d *Dashboard) Subscribe(fn Listener) {
	d.Prediction.Subscribe(fn)
	d.Comparison.Subscribe(fn)
	d.Metrics.Subscribe(fn)
	d.Threshold.Subscribe(fn)
}
