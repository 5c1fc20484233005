// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package connection

import (
	"context"

	"bulkforce/cli/internal/backend"
)

// fakeAPI records calls and answers with canned values.
type fakeAPI struct {
	calls    []string
	sessions []backend.Session
	lastJob  backend.JobSpec
	lastBody []byte

	loginArgs []string
	login     backend.LoginResult
	loginErr  error

	result backend.Canonical
	err    error
	text   string
}

func (f *fakeAPI) record(name string, s backend.Session) {
	f.calls = append(f.calls, name)
	f.sessions = append(f.sessions, s)
}

func (f *fakeAPI) Login(_ context.Context, host, username, password, apiVersion string) (backend.LoginResult, error) {
	f.calls = append(f.calls, "Login")
	f.loginArgs = []string{host, username, password, apiVersion}
	return f.login, f.loginErr
}

func (f *fakeAPI) OAuthLogin(_ context.Context, host, clientID, clientSecret, refreshToken string) (backend.LoginResult, error) {
	f.calls = append(f.calls, "OAuthLogin")
	f.loginArgs = []string{host, clientID, clientSecret, refreshToken}
	return f.login, f.loginErr
}

func (f *fakeAPI) CreateJob(_ context.Context, s backend.Session, job backend.JobSpec) (backend.Canonical, error) {
	f.record("CreateJob", s)
	f.lastJob = job
	return f.result, f.err
}

func (f *fakeAPI) CloseJob(_ context.Context, s backend.Session, _ string) (backend.Canonical, error) {
	f.record("CloseJob", s)
	return f.result, f.err
}

func (f *fakeAPI) AbortJob(_ context.Context, s backend.Session, _ string) (backend.Canonical, error) {
	f.record("AbortJob", s)
	return f.result, f.err
}

func (f *fakeAPI) AddBatch(_ context.Context, s backend.Session, _ string, data []byte) (backend.Canonical, error) {
	f.record("AddBatch", s)
	f.lastBody = data
	return f.result, f.err
}

func (f *fakeAPI) AddFileUploadBatch(_ context.Context, s backend.Session, _ string, archive []byte) (backend.Canonical, error) {
	f.record("AddFileUploadBatch", s)
	f.lastBody = archive
	return f.result, f.err
}

func (f *fakeAPI) AddQuery(_ context.Context, s backend.Session, _ string, soql string) (backend.Canonical, error) {
	f.record("AddQuery", s)
	f.lastBody = []byte(soql)
	return f.result, f.err
}

func (f *fakeAPI) QueryBatch(_ context.Context, s backend.Session, _, _ string) (backend.Canonical, error) {
	f.record("QueryBatch", s)
	return f.result, f.err
}

func (f *fakeAPI) QueryBatchResultID(_ context.Context, s backend.Session, _, _ string) (backend.Canonical, error) {
	f.record("QueryBatchResultID", s)
	return f.result, f.err
}

func (f *fakeAPI) QueryBatchResultText(_ context.Context, s backend.Session, _, _ string) (string, error) {
	f.record("QueryBatchResultText", s)
	return f.text, f.err
}

func (f *fakeAPI) QueryBatchResultData(_ context.Context, s backend.Session, _, _, _ string) (string, error) {
	f.record("QueryBatchResultData", s)
	return f.text, f.err
}
