// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bulk submits insert, update, upsert, delete and query jobs.
//
// Every call runs one full cycle: package the records, create the job,
// submit a single batch, close the job and hand back a batch handle. The
// service keeps processing after the job is closed; waiting for the outcome
// is left to the batch handle.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bulkforce/cli/internal/batch"
	"bulkforce/cli/internal/config"
	"bulkforce/cli/internal/connection"
	bferrors "bulkforce/cli/internal/errors"
	"bulkforce/cli/internal/logging"
	"bulkforce/cli/internal/packager"
	"bulkforce/cli/internal/record"
)

// Operation is the kind of bulk job.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpUpsert Operation = "upsert"
	OpDelete Operation = "delete"
	OpQuery  Operation = "query"
)

// JobDescriptor is the job one call opens.
type JobDescriptor struct {
	Operation       Operation
	Object          string
	ContentType     packager.ContentType
	ExternalIDField string
}

// Connection is the job and batch lifecycle a Client drives.
// *connection.Connection implements it.
type Connection interface {
	batch.Source
	CreateJob(ctx context.Context, operation, object, contentType, externalField string) (string, error)
	AddCSVBatch(ctx context.Context, jobID string, data []byte) (string, error)
	AddFileUploadBatch(ctx context.Context, jobID, archivePath string) (string, error)
	AddQuery(ctx context.Context, jobID, soql string) (string, error)
	CloseJob(ctx context.Context, jobID string) error
	AbortJob(ctx context.Context, jobID string) error
	OrgID() string
}

// FailurePolicy decides what happens to a job whose batch could not be submitted.
type FailurePolicy int

const (
	// LeaveOpen leaves the job open on the service.
	LeaveOpen FailurePolicy = iota
	// CloseOnFailure closes the job.
	CloseOnFailure
	// AbortOnFailure aborts the job.
	AbortOnFailure
)

func (p FailurePolicy) String() string {
	switch p {
	case CloseOnFailure:
		return config.OnFailureClose
	case AbortOnFailure:
		return config.OnFailureAbort
	default:
		return config.OnFailureLeave
	}
}

// ParseFailurePolicy maps "leave", "close" or "abort" to a policy.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", config.OnFailureLeave:
		return LeaveOpen, nil
	case config.OnFailureClose:
		return CloseOnFailure, nil
	case config.OnFailureAbort:
		return AbortOnFailure, nil
	default:
		return LeaveOpen, bferrors.New(bferrors.Config, fmt.Sprintf("unknown submit failure policy %q", s))
	}
}

// Options configures a Client.
type Options struct {
	// Packager defaults to one rooted at the filesystem root using os.TempDir().
	Packager *packager.Packager
	// OnSubmitFailure defaults to LeaveOpen.
	OnSubmitFailure FailurePolicy
	// PollInterval is handed to every returned batch.
	PollInterval time.Duration
	Logger       *zap.Logger
}

// Client submits bulk jobs over one connection. Calls are sequential;
// use one Client per goroutine.
type Client struct {
	conn     Connection
	packager *packager.Packager
	policy   FailurePolicy
	interval time.Duration
	log      *zap.Logger
}

// New creates a Client over conn.
func New(conn Connection, opts Options) *Client {
	log := logging.OrNop(opts.Logger)
	pk := opts.Packager
	if pk == nil {
		pk = packager.New(packager.Options{Logger: log})
	}
	return &Client{
		conn:     conn,
		packager: pk,
		policy:   opts.OnSubmitFailure,
		interval: opts.PollInterval,
		log:      log,
	}
}

// Open connects with cfg and returns a Client configured from it. It warns
// when credentials are about to be sent to a host outside salesforce.com.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Client, error) {
	log = logging.OrNop(log)
	if !cfg.IsSalesforceHost() {
		log.Warn("submitting credentials to a host other than salesforce.com", zap.String("host", cfg.Host))
	}

	policy, err := ParseFailurePolicy(cfg.OnSubmitFailure)
	if err != nil {
		return nil, err
	}

	conn, _, err := connection.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return New(conn, Options{
		Packager:        packager.New(packager.Options{Root: cfg.AttachmentRoot, Logger: log}),
		OnSubmitFailure: policy,
		PollInterval:    cfg.PollInterval,
		Logger:          log,
	}), nil
}

// OrgID returns the organization id of the connection.
func (c *Client) OrgID() string { return c.conn.OrgID() }

// Insert creates records of object.
func (c *Client) Insert(ctx context.Context, object string, records []record.Record) (*batch.Batch, error) {
	return c.start(ctx, OpInsert, object, records, "")
}

// Update updates records of object by Id.
func (c *Client) Update(ctx context.Context, object string, records []record.Record) (*batch.Batch, error) {
	return c.start(ctx, OpUpdate, object, records, "")
}

// Upsert inserts or updates records of object matched on externalField.
func (c *Client) Upsert(ctx context.Context, object string, records []record.Record, externalField string) (*batch.Batch, error) {
	if externalField == "" {
		return nil, bferrors.New(bferrors.Config, "upsert requires an external id field")
	}
	return c.start(ctx, OpUpsert, object, records, externalField)
}

// Delete deletes records of object by Id.
func (c *Client) Delete(ctx context.Context, object string, records []record.Record) (*batch.Batch, error) {
	return c.start(ctx, OpDelete, object, records, "")
}

// Query submits soql as a query job against object.
func (c *Client) Query(ctx context.Context, object, soql string) (*batch.Batch, error) {
	job := JobDescriptor{Operation: OpQuery, Object: object, ContentType: packager.ContentCSV}

	jobID, err := c.createJob(ctx, job)
	if err != nil {
		return nil, err
	}

	batchID, err := c.conn.AddQuery(ctx, jobID, soql)
	if err != nil {
		return nil, c.submitFailed(ctx, jobID, err)
	}

	return c.finish(ctx, job, jobID, batchID)
}

func (c *Client) start(ctx context.Context, op Operation, object string, records []record.Record, externalField string) (*batch.Batch, error) {
	payload, err := c.packager.Package(records)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := payload.Cleanup(); err != nil {
			c.log.Warn("temporary archive not removed", zap.String("path", payload.ArchivePath), zap.Error(err))
		}
	}()

	job := JobDescriptor{
		Operation:       op,
		Object:          object,
		ContentType:     payload.ContentType,
		ExternalIDField: externalField,
	}

	jobID, err := c.createJob(ctx, job)
	if err != nil {
		return nil, err
	}

	batchID, err := c.submit(ctx, jobID, payload)
	if err != nil {
		return nil, c.submitFailed(ctx, jobID, err)
	}

	return c.finish(ctx, job, jobID, batchID)
}

func (c *Client) createJob(ctx context.Context, job JobDescriptor) (string, error) {
	return c.conn.CreateJob(ctx, string(job.Operation), job.Object, string(job.ContentType), job.ExternalIDField)
}

func (c *Client) submit(ctx context.Context, jobID string, p *packager.Payload) (string, error) {
	switch p.ContentType {
	case packager.ContentZipCSV:
		return c.conn.AddFileUploadBatch(ctx, jobID, p.ArchivePath)
	default:
		if len(p.Data) == 0 {
			c.log.Debug("nothing to submit", zap.String("job_id", jobID), zap.Int("records", len(p.Records)))
			return "", nil
		}
		return c.conn.AddCSVBatch(ctx, jobID, p.Data)
	}
}

func (c *Client) finish(ctx context.Context, job JobDescriptor, jobID, batchID string) (*batch.Batch, error) {
	if err := c.conn.CloseJob(ctx, jobID); err != nil {
		return nil, err
	}

	c.log.Info("batch submitted",
		zap.String("operation", string(job.Operation)),
		zap.String("object", job.Object),
		zap.String("content_type", string(job.ContentType)),
		zap.String("job_id", jobID),
		zap.String("batch_id", batchID))

	return batch.New(c.conn, jobID, batchID, job.Operation == OpQuery,
		batch.WithPollInterval(c.interval),
		batch.WithLogger(c.log)), nil
}

// submitFailed applies the failure policy to an open job. The policy's own
// error is joined to the submission error.
func (c *Client) submitFailed(ctx context.Context, jobID string, err error) error {
	var policyErr error
	switch c.policy {
	case CloseOnFailure:
		policyErr = c.conn.CloseJob(ctx, jobID)
	case AbortOnFailure:
		policyErr = c.conn.AbortJob(ctx, jobID)
	default:
		c.log.Warn("batch submission failed, job left open", zap.String("job_id", jobID))
		return err
	}

	c.log.Warn("batch submission failed",
		zap.String("job_id", jobID),
		zap.Stringer("policy", c.policy),
		zap.NamedError("policy_error", policyErr))
	if policyErr != nil {
		return errors.Join(err, policyErr)
	}
	return err
}
