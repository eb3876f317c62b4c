package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"school-route-service/internal/domain"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes each plan to a topic, keyed by route name so all
// plans of one route land on the same partition.
type KafkaPublisher struct {
	w       messageWriter
	metrics PublishMetrics
	logger  *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, m PublishMetrics, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka publisher: no brokers")
	}
	if topic == "" {
		return nil, errors.New("kafka publisher: topic is empty")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	return newKafkaPublisher(w, m, logger), nil
}

func newKafkaPublisher(w messageWriter, m PublishMetrics, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{w: w, metrics: m, logger: logger}
}

func (p *KafkaPublisher) PublishPlan(ctx context.Context, plan *domain.RoutePlan) (err error) {
	if plan == nil {
		return errors.New("kafka publish: plan is nil")
	}

	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.PublishObserve("kafka", time.Since(start), err)
		}
	}()

	b, err := json.Marshal(NewPlanEvent(plan, start))
	if err != nil {
		return fmt.Errorf("kafka publish: marshal plan: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(plan.RouteName),
		Value: b,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte("route.planned")},
			{Key: "plan_id", Value: []byte(plan.PlanID)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish plan_id=%s: %w", plan.PlanID, err)
	}

	p.logger.Debug("plan published", zap.String("plan_id", plan.PlanID), zap.String("route", plan.RouteName))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
