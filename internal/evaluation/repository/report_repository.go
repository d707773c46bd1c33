// Package repository persists and broadcasts finished evaluation reports.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/klauspost/compress/zstd"

	"codecoach/internal/common/cache"
	"codecoach/internal/evaluation/model"
	"codecoach/pkg/errors"
)

const reportKeyPrefix = "evaluation:report:"

// ReportStore keeps finished reports for later retrieval.
type ReportStore interface {
	Save(ctx context.Context, report *model.EvaluationReport) error
	Get(ctx context.Context, id string) (*model.EvaluationReport, error)
}

// RedisReportStore stores reports in Redis as zstd-compressed JSON with a
// TTL. Reports can be large when submissions print a lot, so compression
// pays for itself quickly.
type RedisReportStore struct {
	cache cache.Cache
	ttl   time.Duration
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewRedisReportStore creates a store on top of the shared cache.
func NewRedisReportStore(c cache.Cache, ttl time.Duration) (*RedisReportStore, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ReportStoreFailed)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ReportStoreFailed)
	}
	return &RedisReportStore{cache: c, ttl: ttl, enc: enc, dec: dec}, nil
}

// Save writes the report under its evaluation id.
func (s *RedisReportStore) Save(ctx context.Context, report *model.EvaluationReport) error {
	if report == nil || report.ID == "" {
		return errors.New(errors.ReportStoreFailed).WithMessage("report has no id")
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, errors.ReportEncodeFailed)
	}
	packed := s.enc.EncodeAll(raw, nil)
	if err := s.cache.Set(ctx, reportKeyPrefix+report.ID, string(packed), s.ttl); err != nil {
		return errors.Wrap(err, errors.ReportStoreFailed)
	}
	return nil
}

// Get fetches a report by id. A missing or expired report yields
// ReportNotFound.
func (s *RedisReportStore) Get(ctx context.Context, id string) (*model.EvaluationReport, error) {
	if id == "" {
		return nil, errors.New(errors.ReportNotFound)
	}
	packed, err := s.cache.Get(ctx, reportKeyPrefix+id)
	if err != nil {
		return nil, errors.Wrap(err, errors.ReportStoreFailed)
	}
	if packed == "" {
		return nil, errors.Newf(errors.ReportNotFound, "evaluation %s not found", id)
	}
	raw, err := s.dec.DecodeAll([]byte(packed), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ReportEncodeFailed)
	}
	var report model.EvaluationReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, errors.Wrap(err, errors.ReportEncodeFailed)
	}
	return &report, nil
}
