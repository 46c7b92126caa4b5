package channel

import (
	"context"

	"BtcPulse/internal/domain/models"
	"BtcPulse/pkg/logger"
)

// ConsoleChannel writes alerts to the structured log.
type ConsoleChannel struct {
	logger *logger.Logger
}

// NewConsoleChannel creates the console channel.
func NewConsoleChannel(lgr *logger.Logger) *ConsoleChannel {
	return &ConsoleChannel{logger: lgr}
}

func (c *ConsoleChannel) Name() string { return "console" }

func (c *ConsoleChannel) Send(_ context.Context, a *models.Alert) (bool, error) {
	c.logger.Info("ALERT",
		logger.String("rule", a.RuleID),
		logger.String("severity", string(a.Severity)),
		logger.String("metric", string(a.Metric)),
		logger.Any("value", a.Value),
		logger.Bool("estimated", a.Estimated),
		logger.String("message", a.Message),
	)
	return true, nil
}

func (c *ConsoleChannel) SendComposite(_ context.Context, s *models.CompositeSignal) (bool, error) {
	c.logger.Info("COMPOSITE SIGNAL",
		logger.String("composite", s.CompositeID),
		logger.String("severity", string(s.Severity)),
		logger.Strings("rules", s.RuleIDs),
		logger.String("message", s.Message),
	)
	return true, nil
}
