// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bulk

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bulkforce/cli/internal/backend"
	"bulkforce/cli/internal/config"
	bferrors "bulkforce/cli/internal/errors"
	"bulkforce/cli/internal/packager"
	"bulkforce/cli/internal/record"
)

type createCall struct {
	operation, object, contentType, externalField string
}

// fakeConn records the lifecycle calls a Client makes.
type fakeConn struct {
	calls   []string
	created []createCall
	csv     []byte
	soql    string

	archivePath    string
	archiveEntries []string
	archiveFiles   map[string]string

	addErr   error
	closeErr error
	abortErr error
}

func (f *fakeConn) CreateJob(_ context.Context, operation, object, contentType, externalField string) (string, error) {
	f.calls = append(f.calls, "create_job")
	f.created = append(f.created, createCall{operation, object, contentType, externalField})
	return "750000000000001", nil
}

func (f *fakeConn) AddCSVBatch(_ context.Context, _ string, data []byte) (string, error) {
	f.calls = append(f.calls, "add_batch")
	f.csv = data
	if f.addErr != nil {
		return "", f.addErr
	}
	return "751000000000001", nil
}

func (f *fakeConn) AddFileUploadBatch(_ context.Context, _ string, archivePath string) (string, error) {
	f.calls = append(f.calls, "add_file_upload_batch")
	f.archivePath = archivePath
	if f.addErr != nil {
		return "", f.addErr
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", err
	}
	defer zr.Close()
	f.archiveFiles = make(map[string]string)
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			return "", err
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		f.archiveEntries = append(f.archiveEntries, zf.Name)
		f.archiveFiles[zf.Name] = string(b)
	}
	return "751000000000002", nil
}

func (f *fakeConn) AddQuery(_ context.Context, _, soql string) (string, error) {
	f.calls = append(f.calls, "add_query")
	f.soql = soql
	if f.addErr != nil {
		return "", f.addErr
	}
	return "751000000000003", nil
}

func (f *fakeConn) CloseJob(context.Context, string) error {
	f.calls = append(f.calls, "close_job")
	return f.closeErr
}

func (f *fakeConn) AbortJob(context.Context, string) error {
	f.calls = append(f.calls, "abort_job")
	return f.abortErr
}

func (f *fakeConn) OrgID() string { return "org_id" }

func (f *fakeConn) QueryBatch(context.Context, string, string) (backend.Canonical, error) {
	return backend.Canonical{"state": "Completed"}, nil
}

func (f *fakeConn) QueryBatchResultID(context.Context, string, string) (backend.Canonical, error) {
	return backend.Canonical{"result": "752000000000001"}, nil
}

func (f *fakeConn) QueryBatchResultIDCSV(context.Context, string, string) (string, error) {
	return "", nil
}

func (f *fakeConn) QueryBatchResultData(context.Context, string, string, string) (string, error) {
	return "\"Id\"\n\"001\"\n", nil
}

func newClient(conn Connection, opts Options) *Client {
	if opts.Packager == nil {
		opts.Packager = packager.New(packager.Options{TempDir: os.TempDir()})
	}
	return New(conn, opts)
}

func TestInsert_CSV(t *testing.T) {
	conn := &fakeConn{}
	c := newClient(conn, Options{})

	b, err := c.Insert(context.Background(), "Account", []record.Record{record.New("Name", "Acme")})
	require.NoError(t, err)

	assert.Equal(t, []string{"create_job", "add_batch", "close_job"}, conn.calls)
	assert.Equal(t, []createCall{{"insert", "Account", "CSV", ""}}, conn.created)
	assert.Equal(t, "Name\nAcme\n", string(conn.csv))
	assert.Equal(t, "750000000000001", b.JobID)
	assert.Equal(t, "751000000000001", b.BatchID)
	assert.False(t, b.Query)
}

func TestInsert_Archive(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
	pdf, err := os.Open(path)
	require.NoError(t, err)
	defer pdf.Close()

	conn := &fakeConn{}
	c := newClient(conn, Options{Packager: packager.New(packager.Options{Root: root, TempDir: t.TempDir()})})

	b, err := c.Insert(context.Background(), "Attachment", []record.Record{
		record.New("ParentId", "00Kk0001908kqkDEAQ", "Body", pdf),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"create_job", "add_file_upload_batch", "close_job"}, conn.calls)
	assert.Equal(t, "ZIP_CSV", conn.created[0].contentType)
	assert.Equal(t, []string{"a.pdf", packager.ManifestName}, conn.archiveEntries)
	assert.Equal(t, "ParentId,Body\n00Kk0001908kqkDEAQ,#a.pdf\n", conn.archiveFiles[packager.ManifestName])
	assert.Equal(t, "751000000000002", b.BatchID)

	_, err = os.Stat(conn.archivePath)
	assert.True(t, os.IsNotExist(err), "archive must be removed after submission")
}

func TestOperations(t *testing.T) {
	records := []record.Record{record.New("no", "value")}
	tests := []struct {
		name string
		call func(*Client) error
		want createCall
	}{
		{"update", func(c *Client) error { _, err := c.Update(context.Background(), "Account", records); return err }, createCall{"update", "Account", "CSV", ""}},
		{"upsert", func(c *Client) error { _, err := c.Upsert(context.Background(), "Account", records, "upsert_id"); return err }, createCall{"upsert", "Account", "CSV", "upsert_id"}},
		{"delete", func(c *Client) error { _, err := c.Delete(context.Background(), "Account", records); return err }, createCall{"delete", "Account", "CSV", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{}
			require.NoError(t, tt.call(newClient(conn, Options{})))
			assert.Equal(t, []createCall{tt.want}, conn.created)
			assert.Equal(t, []string{"create_job", "add_batch", "close_job"}, conn.calls)
		})
	}
}

func TestUpsert_RequiresExternalField(t *testing.T) {
	conn := &fakeConn{}
	_, err := newClient(conn, Options{}).Upsert(context.Background(), "Account", nil, "")
	assert.Equal(t, bferrors.Config, bferrors.KindOf(err))
	assert.Empty(t, conn.calls)
}

func TestQuery(t *testing.T) {
	conn := &fakeConn{}
	b, err := newClient(conn, Options{}).Query(context.Background(), "Account", "SELECT Id FROM Account")
	require.NoError(t, err)

	assert.Equal(t, []string{"create_job", "add_query", "close_job"}, conn.calls)
	assert.Equal(t, []createCall{{"query", "Account", "CSV", ""}}, conn.created)
	assert.Equal(t, "SELECT Id FROM Account", conn.soql)
	assert.True(t, b.Query)

	st, err := b.FinalStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"\"Id\"\n\"001\"\n"}, st.Results)
}

func TestEmptyBatchSubmitsNothing(t *testing.T) {
	conn := &fakeConn{}
	b, err := newClient(conn, Options{}).Insert(context.Background(), "Account", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"create_job", "close_job"}, conn.calls)
	assert.Equal(t, "CSV", conn.created[0].contentType)
	assert.Empty(t, b.BatchID)
}

func TestFieldlessRecordsSubmitNothing(t *testing.T) {
	conn := &fakeConn{}
	b, err := newClient(conn, Options{}).Insert(context.Background(), "Account", []record.Record{{}, {}})
	require.NoError(t, err)
	assert.Equal(t, []string{"create_job", "close_job"}, conn.calls)
	assert.Empty(t, b.BatchID)
}

func TestPackagingFailureMakesNoCalls(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.pdf")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, os.Remove(path))

	conn := &fakeConn{}
	_, err = newClient(conn, Options{}).Insert(context.Background(), "Attachment", []record.Record{record.New("Body", f)})
	assert.Equal(t, bferrors.Packaging, bferrors.KindOf(err))
	assert.Empty(t, conn.calls)
}

func TestSubmitFailurePolicy(t *testing.T) {
	submitErr := &bferrors.ServiceFaultError{ExceptionCode: "InvalidBatch", ExceptionMessage: "bad"}
	records := []record.Record{record.New("Name", "Acme")}

	tests := []struct {
		name      string
		policy    FailurePolicy
		closeErr  error
		wantCalls []string
		wantExtra bool
	}{
		{"leave open", LeaveOpen, nil, []string{"create_job", "add_batch"}, false},
		{"close", CloseOnFailure, nil, []string{"create_job", "add_batch", "close_job"}, false},
		{"abort", AbortOnFailure, nil, []string{"create_job", "add_batch", "abort_job"}, false},
		{"close fails too", CloseOnFailure, errors.New("close failed"), []string{"create_job", "add_batch", "close_job"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &fakeConn{addErr: submitErr, closeErr: tt.closeErr}
			_, err := newClient(conn, Options{OnSubmitFailure: tt.policy}).Insert(context.Background(), "Account", records)

			require.Error(t, err)
			assert.ErrorIs(t, err, submitErr)
			assert.Equal(t, bferrors.ServiceFault, bferrors.KindOf(err))
			assert.Equal(t, tt.wantCalls, conn.calls)
			if tt.wantExtra {
				assert.ErrorIs(t, err, tt.closeErr)
			}
		})
	}
}

func TestQuerySubmitFailureAborts(t *testing.T) {
	conn := &fakeConn{addErr: errors.New("malformed query")}
	_, err := newClient(conn, Options{OnSubmitFailure: AbortOnFailure}).Query(context.Background(), "Account", "SELEKT")
	require.Error(t, err)
	assert.Equal(t, []string{"create_job", "add_query", "abort_job"}, conn.calls)
}

func TestParseFailurePolicy(t *testing.T) {
	for in, want := range map[string]FailurePolicy{"": LeaveOpen, "leave": LeaveOpen, "Close": CloseOnFailure, "abort": AbortOnFailure} {
		got, err := ParseFailurePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFailurePolicy("retry")
	assert.Equal(t, bferrors.Config, bferrors.KindOf(err))
	assert.Equal(t, "abort", AbortOnFailure.String())
}

func TestOpen_WarnsForForeignHost(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := config.Defaults()
	cfg.Host = "login.example.com"
	cfg.SessionID, cfg.Instance = "00D!sess", "na1"

	c, err := Open(context.Background(), cfg, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, "00D", c.OrgID())

	warnings := logs.FilterMessageSnippet("other than salesforce.com").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "login.example.com", warnings[0].ContextMap()["host"])
}

func TestOpen_NoWarningForSalesforceHost(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := config.Defaults()
	cfg.SessionID, cfg.Instance = "00D!sess", "na1"

	_, err := Open(context.Background(), cfg, zap.New(core))
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}
