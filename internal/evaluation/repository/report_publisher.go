package repository

import (
	"context"
	"encoding/json"
	"time"

	"codecoach/internal/common/mq"
	"codecoach/internal/evaluation/model"
	"codecoach/pkg/errors"
)

// ReportEvent is the message body published when an evaluation finishes.
// It is a summary, not the full report; consumers fetch details by id.
type ReportEvent struct {
	EvaluationID         string    `json:"evaluation_id"`
	Compiled             bool      `json:"compiled"`
	PassedTests          int       `json:"passed_tests"`
	TotalTests           int       `json:"total_tests"`
	TotalExecutionTimeMs int64     `json:"total_execution_time_ms"`
	CreatedAt            time.Time `json:"created_at"`
}

// EventPublisher announces finished evaluations on a message topic.
type EventPublisher struct {
	producer mq.Producer
	topic    string
}

// NewEventPublisher wraps a producer with the report topic.
func NewEventPublisher(producer mq.Producer, topic string) *EventPublisher {
	if topic == "" {
		topic = "evaluation.completed"
	}
	return &EventPublisher{producer: producer, topic: topic}
}

// PublishCompleted sends the completion event for one report.
func (p *EventPublisher) PublishCompleted(ctx context.Context, report *model.EvaluationReport) error {
	event := ReportEvent{
		EvaluationID:         report.ID,
		Compiled:             report.Compiled,
		PassedTests:          report.PassedCount(),
		TotalTests:           len(report.Tests),
		TotalExecutionTimeMs: report.TotalExecutionTimeMs,
		CreatedAt:            report.CreatedAt,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ReportEncodeFailed)
	}
	msg := mq.NewMessage(body)
	msg.ID = report.ID
	msg.SetHeader("evaluation_id", report.ID)
	return p.producer.Publish(ctx, p.topic, msg)
}
