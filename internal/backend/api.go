// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend talks to the Salesforce Bulk API.
// It is split into three layers: pure request builders (request.go), an
// HTTPS transport that returns raw bodies (transport.go), and response
// normalizers that turn bodies into canonical maps or typed errors
// (response.go). API composes the three, one method per remote operation.
package backend

import (
	"context"
	"fmt"
)

// API defines the remote operations the client depends on.
// Implementations may call the real service or provide fakes for tests.
type API interface {
	// Login performs the SOAP partner login. password must include the
	// security token when the org requires one.
	Login(ctx context.Context, host, username, password, apiVersion string) (LoginResult, error)
	// OAuthLogin exchanges a refresh token for a session.
	OAuthLogin(ctx context.Context, host, clientID, clientSecret, refreshToken string) (LoginResult, error)

	CreateJob(ctx context.Context, s Session, job JobSpec) (Canonical, error)
	CloseJob(ctx context.Context, s Session, jobID string) (Canonical, error)
	AbortJob(ctx context.Context, s Session, jobID string) (Canonical, error)
	AddBatch(ctx context.Context, s Session, jobID string, data []byte) (Canonical, error)
	AddFileUploadBatch(ctx context.Context, s Session, jobID string, archive []byte) (Canonical, error)
	AddQuery(ctx context.Context, s Session, jobID, soql string) (Canonical, error)
	QueryBatch(ctx context.Context, s Session, jobID, batchID string) (Canonical, error)
	// QueryBatchResultID returns the result handle list of a query batch.
	QueryBatchResultID(ctx context.Context, s Session, jobID, batchID string) (Canonical, error)
	// QueryBatchResultText returns the same endpoint as text. For DML
	// batches this is the per-record result CSV.
	QueryBatchResultText(ctx context.Context, s Session, jobID, batchID string) (string, error)
	QueryBatchResultData(ctx context.Context, s Session, jobID, batchID, resultID string) (string, error)
}

// HTTP implements API over a Doer.
type HTTP struct {
	// doer executes request descriptors
	doer Doer
	// baseDomain resolves instance identifiers from login responses
	baseDomain string
}

// New creates an API client. An empty baseDomain means DefaultBaseDomain.
func New(doer Doer, baseDomain string) *HTTP {
	if baseDomain == "" {
		baseDomain = DefaultBaseDomain
	}
	return &HTTP{doer: doer, baseDomain: baseDomain}
}

// BaseDomain returns the domain sessions created by this client resolve against.
func (h *HTTP) BaseDomain() string { return h.baseDomain }

func (h *HTTP) Login(ctx context.Context, host, username, password, apiVersion string) (LoginResult, error) {
	body, err := h.doer.Do(ctx, LoginRequest(host, username, password, apiVersion))
	if err != nil {
		return LoginResult{}, err
	}
	return ParseLogin(body, h.baseDomain)
}

func (h *HTTP) OAuthLogin(ctx context.Context, host, clientID, clientSecret, refreshToken string) (LoginResult, error) {
	body, err := h.doer.Do(ctx, OAuthLoginRequest(host, clientID, clientSecret, refreshToken))
	if err != nil {
		return LoginResult{}, err
	}
	return ParseOAuth(body, h.baseDomain)
}

func (h *HTTP) CreateJob(ctx context.Context, s Session, job JobSpec) (Canonical, error) {
	return h.jobBatch(ctx, CreateJobRequest(s, job))
}

func (h *HTTP) CloseJob(ctx context.Context, s Session, jobID string) (Canonical, error) {
	return h.jobBatch(ctx, CloseJobRequest(s, jobID))
}

func (h *HTTP) AbortJob(ctx context.Context, s Session, jobID string) (Canonical, error) {
	return h.jobBatch(ctx, AbortJobRequest(s, jobID))
}

func (h *HTTP) AddBatch(ctx context.Context, s Session, jobID string, data []byte) (Canonical, error) {
	return h.jobBatch(ctx, AddBatchRequest(s, jobID, data))
}

func (h *HTTP) AddFileUploadBatch(ctx context.Context, s Session, jobID string, archive []byte) (Canonical, error) {
	return h.jobBatch(ctx, AddFileUploadBatchRequest(s, jobID, archive))
}

func (h *HTTP) AddQuery(ctx context.Context, s Session, jobID, soql string) (Canonical, error) {
	return h.jobBatch(ctx, AddQueryRequest(s, jobID, soql))
}

func (h *HTTP) QueryBatch(ctx context.Context, s Session, jobID, batchID string) (Canonical, error) {
	return h.jobBatch(ctx, QueryBatchRequest(s, jobID, batchID))
}

func (h *HTTP) QueryBatchResultID(ctx context.Context, s Session, jobID, batchID string) (Canonical, error) {
	return h.jobBatch(ctx, QueryBatchResultIDRequest(s, jobID, batchID))
}

func (h *HTTP) QueryBatchResultText(ctx context.Context, s Session, jobID, batchID string) (string, error) {
	req := QueryBatchResultIDRequest(s, jobID, batchID)
	req.Headers[HeaderContentType] = contentCSV
	return h.text(ctx, req)
}

func (h *HTTP) QueryBatchResultData(ctx context.Context, s Session, jobID, batchID, resultID string) (string, error) {
	return h.text(ctx, QueryBatchResultDataRequest(s, jobID, batchID, resultID))
}

func (h *HTTP) jobBatch(ctx context.Context, req Request) (Canonical, error) {
	body, err := h.doer.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := ParseJobBatch(body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return out, nil
}

func (h *HTTP) text(ctx context.Context, req Request) (string, error) {
	body, err := h.doer.Do(ctx, req)
	if err != nil {
		return "", err
	}
	return NormalizeCSV(body), nil
}
