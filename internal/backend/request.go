// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseDomain is the domain instance identifiers are resolved against.
const DefaultBaseDomain = "salesforce.com"

// Header names and content types used on the wire.
const (
	HeaderSession     = "X-SFDC-Session"
	HeaderContentType = "Content-Type"

	contentXML  = "application/xml; charset=utf-8"
	contentCSV  = "text/csv; charset=UTF-8"
	contentZip  = "zip/csv"
	contentSOAP = "text/xml; charset=utf-8"
	contentForm = "application/x-www-form-urlencoded"
)

const asyncNamespace = "http://www.force.com/2009/06/asyncapi/dataload"

// Request describes one outbound call. It is a plain value: building one
// never performs I/O and never fails.
type Request struct {
	Method  string
	Host    string
	Path    string
	Body    []byte
	Headers map[string]string
}

// URL returns the HTTPS address the request targets.
func (r Request) URL() string {
	return "https://" + r.Host + r.Path
}

// Session identifies an authenticated instance for job and batch calls.
type Session struct {
	Instance   string
	ID         string
	APIVersion string
	// BaseDomain defaults to DefaultBaseDomain when empty.
	BaseDomain string
}

// Host returns "{instance}.{base-domain}".
func (s Session) Host() string {
	domain := s.BaseDomain
	if domain == "" {
		domain = DefaultBaseDomain
	}
	return s.Instance + "." + domain
}

func (s Session) asyncPath(parts ...string) string {
	return "/services/async/" + s.APIVersion + "/" + strings.Join(parts, "/")
}

func (s Session) headers(contentType string) map[string]string {
	h := map[string]string{HeaderSession: s.ID}
	if contentType != "" {
		h[HeaderContentType] = contentType
	}
	return h
}

// JobSpec describes the job to open.
type JobSpec struct {
	Operation string
	Object    string
	// ContentType is "CSV" or "ZIP_CSV".
	ContentType string
	// ExternalIDField is only sent when non-empty (upsert).
	ExternalIDField string
}

// LoginRequest builds the SOAP partner login. password must already carry
// the security token suffix when one is required.
func LoginRequest(host, username, password, apiVersion string) Request {
	body := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8" ?>
<env:Envelope xmlns:xsd="http://www.w3.org/2001/XMLSchema"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
    xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Body>
    <n1:login xmlns:n1="urn:partner.soap.sforce.com">
      <n1:username>%s</n1:username>
      <n1:password>%s</n1:password>
    </n1:login>
  </env:Body>
</env:Envelope>`, escape(username), escape(password))

	return Request{
		Method: http.MethodPost,
		Host:   host,
		Path:   "/services/Soap/u/" + apiVersion,
		Body:   []byte(body),
		Headers: map[string]string{
			HeaderContentType: contentSOAP,
			"SOAPAction":      "login",
		},
	}
}

// OAuthLoginRequest builds the refresh-token grant.
func OAuthLoginRequest(host, clientID, clientSecret, refreshToken string) Request {
	form := []struct{ k, v string }{
		{"grant_type", "refresh_token"},
		{"client_id", clientID},
		{"client_secret", clientSecret},
		{"refresh_token", refreshToken},
	}
	pairs := make([]string, len(form))
	for i, p := range form {
		pairs[i] = p.k + "=" + url.QueryEscape(p.v)
	}

	return Request{
		Method: http.MethodPost,
		Host:   host,
		Path:   "/services/oauth2/token",
		Body:   []byte(strings.Join(pairs, "&")),
		Headers: map[string]string{
			HeaderContentType: contentForm,
			"Accept":          "application/xml",
		},
	}
}

// CreateJobRequest opens a job.
func CreateJobRequest(s Session, job JobSpec) Request {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8" ?>` + "\n")
	b.WriteString(`<jobInfo xmlns="` + asyncNamespace + `">` + "\n")
	writeElement(&b, "operation", job.Operation)
	writeElement(&b, "object", job.Object)
	if job.ExternalIDField != "" {
		writeElement(&b, "externalIdFieldName", job.ExternalIDField)
	}
	writeElement(&b, "contentType", job.ContentType)
	b.WriteString("</jobInfo>\n")

	return Request{
		Method:  http.MethodPost,
		Host:    s.Host(),
		Path:    s.asyncPath("job"),
		Body:    []byte(b.String()),
		Headers: s.headers(contentXML),
	}
}

// CloseJobRequest moves a job to state Closed.
func CloseJobRequest(s Session, jobID string) Request {
	return jobStateRequest(s, jobID, "Closed")
}

// AbortJobRequest moves a job to state Aborted.
func AbortJobRequest(s Session, jobID string) Request {
	return jobStateRequest(s, jobID, "Aborted")
}

func jobStateRequest(s Session, jobID, state string) Request {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8" ?>` + "\n")
	b.WriteString(`<jobInfo xmlns="` + asyncNamespace + `">` + "\n")
	writeElement(&b, "state", state)
	b.WriteString("</jobInfo>\n")

	return Request{
		Method:  http.MethodPost,
		Host:    s.Host(),
		Path:    s.asyncPath("job", jobID),
		Body:    []byte(b.String()),
		Headers: s.headers(contentXML),
	}
}

// AddBatchRequest submits a CSV batch.
func AddBatchRequest(s Session, jobID string, data []byte) Request {
	return Request{
		Method:  http.MethodPost,
		Host:    s.Host(),
		Path:    s.asyncPath("job", jobID, "batch"),
		Body:    data,
		Headers: s.headers(contentCSV),
	}
}

// AddFileUploadBatchRequest submits a ZIP archive batch.
func AddFileUploadBatchRequest(s Session, jobID string, archive []byte) Request {
	return Request{
		Method:  http.MethodPost,
		Host:    s.Host(),
		Path:    s.asyncPath("job", jobID, "batch"),
		Body:    archive,
		Headers: s.headers(contentZip),
	}
}

// AddQueryRequest submits a SOQL statement as the batch body.
func AddQueryRequest(s Session, jobID, soql string) Request {
	return Request{
		Method:  http.MethodPost,
		Host:    s.Host(),
		Path:    s.asyncPath("job", jobID, "batch"),
		Body:    []byte(soql),
		Headers: s.headers(contentCSV),
	}
}

// QueryBatchRequest fetches batch status.
func QueryBatchRequest(s Session, jobID, batchID string) Request {
	return Request{
		Method:  http.MethodGet,
		Host:    s.Host(),
		Path:    s.asyncPath("job", jobID, "batch", batchID),
		Headers: s.headers(""),
	}
}

// QueryBatchResultIDRequest fetches the result handle list of a batch.
func QueryBatchResultIDRequest(s Session, jobID, batchID string) Request {
	return Request{
		Method:  http.MethodGet,
		Host:    s.Host(),
		Path:    s.asyncPath("job", jobID, "batch", batchID, "result"),
		Headers: s.headers(contentXML),
	}
}

// QueryBatchResultDataRequest fetches one result set of a query batch.
func QueryBatchResultDataRequest(s Session, jobID, batchID, resultID string) Request {
	return Request{
		Method:  http.MethodGet,
		Host:    s.Host(),
		Path:    s.asyncPath("job", jobID, "batch", batchID, "result", resultID),
		Headers: s.headers(contentCSV),
	}
}

func writeElement(b *strings.Builder, name, value string) {
	b.WriteString("  <" + name + ">" + escape(value) + "</" + name + ">\n")
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
