package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"school-route-service/internal/domain"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// natsConn is the part of *nats.Conn the publisher uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

// NATSPublisher publishes each plan on "<prefix>.<route>".
type NATSPublisher struct {
	nc      natsConn
	prefix  string
	metrics PublishMetrics
	logger  *zap.Logger
}

func NewNATSPublisher(url, subjectPrefix string, m PublishMetrics, logger *zap.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	nc, err := nats.Connect(url,
		nats.Name("school-route-service"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %q: %w", url, err)
	}

	return newNATSPublisher(nc, subjectPrefix, m, logger), nil
}

func newNATSPublisher(nc natsConn, prefix string, m PublishMetrics, logger *zap.Logger) *NATSPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{nc: nc, prefix: prefix, metrics: m, logger: logger}
}

func (p *NATSPublisher) PublishPlan(ctx context.Context, plan *domain.RoutePlan) (err error) {
	if plan == nil {
		return errors.New("nats publish: plan is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.PublishObserve("nats", time.Since(start), err)
		}
	}()

	b, err := json.Marshal(NewPlanEvent(plan, start))
	if err != nil {
		return fmt.Errorf("nats publish: marshal plan: %w", err)
	}

	subject := p.prefix + "." + subjectToken(plan.RouteName)
	if err := p.nc.Publish(subject, b); err != nil {
		return fmt.Errorf("nats publish subject=%s: %w", subject, err)
	}

	p.logger.Debug("plan published", zap.String("subject", subject), zap.String("plan_id", plan.PlanID))
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	err := p.nc.Drain()
	p.nc.Close()
	return err
}
