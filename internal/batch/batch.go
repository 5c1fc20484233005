// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package batch is the handle returned for a submitted batch. It polls the
// batch state at a fixed interval and fetches results once it completes.
package batch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"bulkforce/cli/internal/backend"
	"bulkforce/cli/internal/logging"
)

// Batch states reported by the service.
const (
	StateQueued       = "Queued"
	StateInProgress   = "InProgress"
	StateCompleted    = "Completed"
	StateFailed       = "Failed"
	StateNotProcessed = "Not Processed"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 2 * time.Second

// Source is the subset of a connection a Batch reads from.
type Source interface {
	QueryBatch(ctx context.Context, jobID, batchID string) (backend.Canonical, error)
	QueryBatchResultID(ctx context.Context, jobID, batchID string) (backend.Canonical, error)
	QueryBatchResultIDCSV(ctx context.Context, jobID, batchID string) (string, error)
	QueryBatchResultData(ctx context.Context, jobID, batchID, resultID string) (string, error)
}

// Status is one observation of a batch.
type Status struct {
	State            string
	StateMessage     string
	RecordsProcessed int
	RecordsFailed    int
	// Results holds result CSV once FinalStatus saw the batch complete:
	// one entry per result set for queries, a single entry otherwise.
	Results []string
	Raw     backend.Canonical
}

// Pending reports whether the service has not finished the batch yet.
func (s Status) Pending() bool {
	return s.State == StateQueued || s.State == StateInProgress
}

// Batch identifies a submitted batch.
type Batch struct {
	JobID   string
	BatchID string
	// Query is set for batches of query jobs.
	Query bool

	src      Source
	interval time.Duration
	progress func(Status)
	log      *zap.Logger
}

// Option configures a Batch.
type Option func(*Batch)

// WithPollInterval sets the fixed delay between polls.
func WithPollInterval(d time.Duration) Option {
	return func(b *Batch) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithProgress registers a callback invoked after every poll.
func WithProgress(fn func(Status)) Option {
	return func(b *Batch) { b.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Batch) { b.log = logging.OrNop(l) }
}

// New returns a handle for batchID of jobID.
func New(src Source, jobID, batchID string, query bool, opts ...Option) *Batch {
	b := &Batch{
		JobID:    jobID,
		BatchID:  batchID,
		Query:    query,
		src:      src,
		interval: DefaultPollInterval,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Status polls the batch once.
func (b *Batch) Status(ctx context.Context) (Status, error) {
	info, err := b.src.QueryBatch(ctx, b.JobID, b.BatchID)
	if err != nil {
		return Status{}, err
	}
	return Status{
		State:            info.String("state"),
		StateMessage:     info.String("state_message"),
		RecordsProcessed: atoi(info.String("number_records_processed")),
		RecordsFailed:    atoi(info.String("number_records_failed")),
		Raw:              info,
	}, nil
}

// FinalStatus polls until the batch leaves Queued and InProgress, then
// attaches the results of a completed batch. It returns ctx.Err() when
// the context ends first.
func (b *Batch) FinalStatus(ctx context.Context) (Status, error) {
	st, err := b.Status(ctx)
	if err != nil {
		return Status{}, err
	}
	b.report(st)

	timer := time.NewTimer(b.interval)
	defer timer.Stop()

	for st.Pending() {
		timer.Reset(b.interval)
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-timer.C:
		}
		if st, err = b.Status(ctx); err != nil {
			return Status{}, err
		}
		b.report(st)
	}

	if st.State == StateCompleted {
		if st.Results, err = b.Results(ctx); err != nil {
			return st, err
		}
	}
	b.log.Debug("batch finished",
		zap.String("job_id", b.JobID),
		zap.String("batch_id", b.BatchID),
		zap.String("state", st.State),
		zap.Int("records_processed", st.RecordsProcessed),
		zap.Int("records_failed", st.RecordsFailed))
	return st, nil
}

// Results fetches the result CSV. Query batches yield one entry per
// result set; other batches yield the per-record result CSV.
func (b *Batch) Results(ctx context.Context) ([]string, error) {
	if !b.Query {
		text, err := b.src.QueryBatchResultIDCSV(ctx, b.JobID, b.BatchID)
		if err != nil {
			return nil, err
		}
		return []string{text}, nil
	}

	list, err := b.src.QueryBatchResultID(ctx, b.JobID, b.BatchID)
	if err != nil {
		return nil, err
	}
	ids := list.Strings("result")
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		data, err := b.src.QueryBatchResultData(ctx, b.JobID, b.BatchID, id)
		if err != nil {
			return nil, fmt.Errorf("result %s: %w", id, err)
		}
		out = append(out, data)
	}
	return out, nil
}

func (b *Batch) report(st Status) {
	b.log.Debug("batch polled", zap.String("batch_id", b.BatchID), zap.String("state", st.State))
	if b.progress != nil {
		b.progress(st)
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
