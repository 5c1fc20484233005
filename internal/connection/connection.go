// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package connection binds an authenticated session to the backend API and
// exposes the job and batch lifecycle calls the bulk client is built on.
package connection

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"bulkforce/cli/internal/backend"
	bferrors "bulkforce/cli/internal/errors"
	"bulkforce/cli/internal/logging"
	"bulkforce/cli/internal/record"
)

// Connection is one authenticated session. It is not shared between
// concurrent submissions; create one per caller.
type Connection struct {
	api     backend.API
	session backend.Session
	log     *zap.Logger
}

// New wraps an existing session.
func New(api backend.API, session backend.Session, log *zap.Logger) *Connection {
	return &Connection{api: api, session: session, log: logging.OrNop(log)}
}

// Session returns the session the connection sends on every call.
func (c *Connection) Session() backend.Session { return c.session }

// OrgID returns the organization id, the session id part before "!".
func (c *Connection) OrgID() string {
	org, _, _ := strings.Cut(c.session.ID, "!")
	return org
}

// CreateJob opens a job and returns its id. externalField is only sent
// when non-empty.
func (c *Connection) CreateJob(ctx context.Context, operation, object, contentType, externalField string) (string, error) {
	res, err := c.api.CreateJob(ctx, c.session, backend.JobSpec{
		Operation:       operation,
		Object:          object,
		ContentType:     contentType,
		ExternalIDField: externalField,
	})
	if err != nil {
		return "", fmt.Errorf("create %s job on %s: %w", operation, object, err)
	}
	id, err := idOf(res, "job")
	if err != nil {
		return "", err
	}
	c.log.Debug("job created", zap.String("job_id", id), zap.String("operation", operation), zap.String("object", object), zap.String("content_type", contentType))
	return id, nil
}

// AddBatch submits records as a CSV batch. Records that render to no CSV
// at all, including an empty list, submit nothing and yield an empty batch id.
func (c *Connection) AddBatch(ctx context.Context, jobID string, records []record.Record) (string, error) {
	data, err := record.ToCSV(records)
	if err != nil {
		return "", &bferrors.PackagingError{Path: "batch", Err: err}
	}
	if len(data) == 0 {
		return "", nil
	}
	return c.AddCSVBatch(ctx, jobID, data)
}

// AddCSVBatch submits an already rendered CSV body.
func (c *Connection) AddCSVBatch(ctx context.Context, jobID string, data []byte) (string, error) {
	res, err := c.api.AddBatch(ctx, c.session, jobID, data)
	if err != nil {
		return "", fmt.Errorf("add batch to job %s: %w", jobID, err)
	}
	return c.batchID(res, jobID)
}

// AddFileUploadBatch submits the ZIP archive at archivePath.
func (c *Connection) AddFileUploadBatch(ctx context.Context, jobID, archivePath string) (string, error) {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return "", &bferrors.PackagingError{Path: archivePath, Err: err}
	}
	res, err := c.api.AddFileUploadBatch(ctx, c.session, jobID, data)
	if err != nil {
		return "", fmt.Errorf("add file upload batch to job %s: %w", jobID, err)
	}
	return c.batchID(res, jobID)
}

// AddQuery submits a SOQL statement as the job's batch.
func (c *Connection) AddQuery(ctx context.Context, jobID, soql string) (string, error) {
	res, err := c.api.AddQuery(ctx, c.session, jobID, soql)
	if err != nil {
		return "", fmt.Errorf("add query to job %s: %w", jobID, err)
	}
	return c.batchID(res, jobID)
}

// CloseJob tells the service no more batches follow.
func (c *Connection) CloseJob(ctx context.Context, jobID string) error {
	if _, err := c.api.CloseJob(ctx, c.session, jobID); err != nil {
		return fmt.Errorf("close job %s: %w", jobID, err)
	}
	c.log.Debug("job closed", zap.String("job_id", jobID))
	return nil
}

// AbortJob stops a job; unprocessed batches are discarded.
func (c *Connection) AbortJob(ctx context.Context, jobID string) error {
	if _, err := c.api.AbortJob(ctx, c.session, jobID); err != nil {
		return fmt.Errorf("abort job %s: %w", jobID, err)
	}
	c.log.Debug("job aborted", zap.String("job_id", jobID))
	return nil
}

// QueryBatch returns the batch info of one batch.
func (c *Connection) QueryBatch(ctx context.Context, jobID, batchID string) (backend.Canonical, error) {
	res, err := c.api.QueryBatch(ctx, c.session, jobID, batchID)
	if err != nil {
		return nil, fmt.Errorf("query batch %s: %w", batchID, err)
	}
	return res, nil
}

// QueryBatchResultID returns the result handle list of a query batch.
func (c *Connection) QueryBatchResultID(ctx context.Context, jobID, batchID string) (backend.Canonical, error) {
	res, err := c.api.QueryBatchResultID(ctx, c.session, jobID, batchID)
	if err != nil {
		return nil, fmt.Errorf("query batch %s result ids: %w", batchID, err)
	}
	return res, nil
}

// QueryBatchResultIDCSV returns the per-record result CSV of a DML batch.
func (c *Connection) QueryBatchResultIDCSV(ctx context.Context, jobID, batchID string) (string, error) {
	res, err := c.api.QueryBatchResultText(ctx, c.session, jobID, batchID)
	if err != nil {
		return "", fmt.Errorf("query batch %s results: %w", batchID, err)
	}
	return res, nil
}

// QueryBatchResultData returns one result set of a query batch.
func (c *Connection) QueryBatchResultData(ctx context.Context, jobID, batchID, resultID string) (string, error) {
	res, err := c.api.QueryBatchResultData(ctx, c.session, jobID, batchID, resultID)
	if err != nil {
		return "", fmt.Errorf("query batch %s result %s: %w", batchID, resultID, err)
	}
	return res, nil
}

func (c *Connection) batchID(res backend.Canonical, jobID string) (string, error) {
	id, err := idOf(res, "batch")
	if err != nil {
		return "", err
	}
	c.log.Debug("batch added", zap.String("job_id", jobID), zap.String("batch_id", id), zap.String("state", res.String("state")))
	return id, nil
}

func idOf(res backend.Canonical, what string) (string, error) {
	id := res.String("id")
	if id == "" {
		return "", fmt.Errorf("%s response carries no id", what)
	}
	return id, nil
}
