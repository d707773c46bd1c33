package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"codecoach/internal/common/cache"
	"codecoach/internal/common/mq"
	"codecoach/internal/evaluation/model"
	"codecoach/pkg/errors"
)

func newTestStore(t *testing.T) (*RedisReportStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	store, err := NewRedisReportStore(c, time.Hour)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, mr
}

func sampleReport() *model.EvaluationReport {
	return &model.EvaluationReport{
		ID:            "b8c1d3a0-0000-4000-8000-000000000001",
		Compiled:      true,
		CompileTimeMs: 230,
		Tests: []model.TestOutcome{
			{
				Index:    1,
				Input:    "1 2\n",
				Expected: "3",
				Actual:   "3",
				Passed:   true,
				Execution: model.ExecutionOutcome{
					Stdout:    "3\n",
					ElapsedMs: 12,
				},
			},
			{
				Index:     2,
				Input:     "loop\n",
				Expected:  "done",
				Actual:    "",
				Passed:    false,
				Execution: model.ExecutionOutcome{ExitCode: -1, TimedOut: true, ElapsedMs: 5000},
			},
		},
		TotalExecutionTimeMs: 5012,
		CreatedAt:            time.Now().UTC().Truncate(time.Second),
	}
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	want := sampleReport()

	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(context.Background(), want.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != want.ID || got.Compiled != want.Compiled || got.TotalExecutionTimeMs != want.TotalExecutionTimeMs {
		t.Fatalf("got %+v", got)
	}
	if len(got.Tests) != 2 {
		t.Fatalf("tests = %d", len(got.Tests))
	}
	if !got.Tests[0].Passed || got.Tests[1].Passed {
		t.Fatalf("verdicts lost: %+v", got.Tests)
	}
	if !got.Tests[1].Execution.TimedOut {
		t.Fatal("timeout flag lost")
	}
}

func TestGetMissingReport(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Get(context.Background(), "no-such-id")
	if !errors.Is(err, errors.ReportNotFound) {
		t.Fatalf("expected ReportNotFound, got %v", err)
	}
}

func TestGetExpiredReport(t *testing.T) {
	store, mr := newTestStore(t)
	report := sampleReport()
	if err := store.Save(context.Background(), report); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Hour)
	_, err := store.Get(context.Background(), report.ID)
	if !errors.Is(err, errors.ReportNotFound) {
		t.Fatalf("expected ReportNotFound after TTL, got %v", err)
	}
}

func TestSaveRejectsEmptyID(t *testing.T) {
	store, _ := newTestStore(t)
	err := store.Save(context.Background(), &model.EvaluationReport{})
	if !errors.Is(err, errors.ReportStoreFailed) {
		t.Fatalf("expected ReportStoreFailed, got %v", err)
	}
}

type capturingProducer struct {
	topic string
	msg   *mq.Message
}

func (p *capturingProducer) Publish(ctx context.Context, topic string, msg *mq.Message) error {
	p.topic = topic
	p.msg = msg
	return nil
}

func (p *capturingProducer) Ping(ctx context.Context) error { return nil }
func (p *capturingProducer) Close() error                   { return nil }

func TestPublishCompleted(t *testing.T) {
	producer := &capturingProducer{}
	pub := NewEventPublisher(producer, "")
	report := sampleReport()

	if err := pub.PublishCompleted(context.Background(), report); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if producer.topic != "evaluation.completed" {
		t.Fatalf("topic = %q", producer.topic)
	}
	var event ReportEvent
	if err := json.Unmarshal(producer.msg.Body, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.EvaluationID != report.ID {
		t.Fatalf("event id = %q", event.EvaluationID)
	}
	if event.PassedTests != 1 || event.TotalTests != 2 {
		t.Fatalf("event counts = %d/%d", event.PassedTests, event.TotalTests)
	}
	if id, ok := producer.msg.GetHeader("evaluation_id"); !ok || id != report.ID {
		t.Fatalf("header = %q", id)
	}
}
