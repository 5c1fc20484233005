// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	bferrors "bulkforce/cli/internal/errors"
	"bulkforce/cli/internal/xmlmap"
)

// Kind tags the shape a response body is expected to have. The caller
// decides the kind from the request it sent; bodies are never sniffed.
type Kind int

const (
	KindLogin Kind = iota
	KindOAuth
	KindJobBatch
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindLogin:
		return "login"
	case KindOAuth:
		return "oauth"
	case KindJobBatch:
		return "job/batch"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Canonical is a decoded XML response with lower snake case keys.
type Canonical = xmlmap.Map

// LoginResult is what both login flows yield: an address on the org's
// instance and a session id to send on every job and batch call.
type LoginResult struct {
	// ServerURL is the SOAP server URL or the OAuth instance URL.
	ServerURL string
	SessionID string
	// UserID is only returned by the SOAP login.
	UserID string
	// Instance is derived from ServerURL, e.g. "na1".
	Instance string
	Raw      Canonical
}

// ParseLogin normalizes a SOAP login response. A fault anywhere in the
// body raises a SoapLoginFault carrying the faultstring.
func ParseLogin(body []byte, baseDomain string) (LoginResult, error) {
	doc, err := decode(body, KindLogin)
	if err != nil {
		return LoginResult{}, err
	}

	payload, ok := doc.Map("body")
	if !ok {
		envelope, _ := doc.Map("envelope")
		payload, _ = envelope.Map("body")
	}
	if fault, ok := payload.Map("fault"); ok {
		return LoginResult{}, &bferrors.SoapLoginFault{Message: fault.String("faultstring")}
	}
	if fault, ok := doc.Map("fault"); ok {
		return LoginResult{}, &bferrors.SoapLoginFault{Message: fault.String("faultstring")}
	}

	resp, _ := payload.Map("login_response")
	result, ok := resp.Map("result")
	if !ok {
		return LoginResult{}, fmt.Errorf("login response: no result element")
	}

	out := LoginResult{
		ServerURL: result.String("server_url"),
		SessionID: result.String("session_id"),
		UserID:    result.String("user_id"),
		Raw:       result,
	}
	out.Instance, err = InstanceFromURL(out.ServerURL, baseDomain)
	if err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

// ParseOAuth normalizes a refresh-token response requested as XML.
func ParseOAuth(body []byte, baseDomain string) (LoginResult, error) {
	doc, err := decode(body, KindOAuth)
	if err != nil {
		return LoginResult{}, err
	}

	payload, ok := doc.Map("o_auth")
	if !ok {
		payload = doc
	}
	if payload.Has("error") {
		return LoginResult{}, &bferrors.OAuthError{
			Code:        payload.String("error"),
			Description: payload.String("error_description"),
		}
	}

	out := LoginResult{
		ServerURL: payload.String("instance_url"),
		SessionID: payload.String("access_token"),
		Raw:       payload,
	}
	if out.SessionID == "" {
		return LoginResult{}, fmt.Errorf("oauth response: no access token")
	}
	out.Instance, err = InstanceFromURL(out.ServerURL, baseDomain)
	if err != nil {
		return LoginResult{}, err
	}
	return out, nil
}

// ParseJobBatch normalizes a job or batch response. These endpoints wrap
// exactly one result under one root tag; that tag's value is returned. A
// root carrying only text comes back keyed by the root tag.
func ParseJobBatch(body []byte) (Canonical, error) {
	doc, err := decode(body, KindJobBatch)
	if err != nil {
		return nil, err
	}

	if doc.Has("error") {
		fault, _ := doc.Map("error")
		return nil, &bferrors.ServiceFaultError{
			ExceptionCode:    fault.String("exception_code"),
			ExceptionMessage: fault.String("exception_message"),
		}
	}

	for name, v := range doc {
		switch root := v.(type) {
		case Canonical:
			return root, nil
		case nil:
			return Canonical{}, nil
		default:
			// A root holding only text stays under its own tag.
			return Canonical{name: root}, nil
		}
	}
	return nil, fmt.Errorf("job/batch response: empty body")
}

var reWrapped = regexp.MustCompile(`\n\s+`)

// NormalizeCSV undoes the line wrapping the service applies to text bodies.
func NormalizeCSV(body []byte) string {
	return reWrapped.ReplaceAllString(string(body), "\n")
}

// InstanceFromURL extracts the instance identifier from a server or
// instance URL: the host part before ".{baseDomain}", without a trailing
// "-api". "https://na1.salesforce.com/services/..." yields "na1".
func InstanceFromURL(rawURL, baseDomain string) (string, error) {
	if baseDomain == "" {
		baseDomain = DefaultBaseDomain
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}

	host := strings.ToLower(u.Hostname())
	suffix := "." + strings.ToLower(baseDomain)
	if !strings.HasSuffix(host, suffix) || len(host) == len(suffix) {
		return "", fmt.Errorf("server url %q is not under %s", rawURL, baseDomain)
	}
	instance := strings.TrimSuffix(host, suffix)
	instance = strings.TrimSuffix(instance, "-api")
	return instance, nil
}

func decode(body []byte, kind Kind) (Canonical, error) {
	doc, err := xmlmap.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s response: %w", kind, err)
	}
	return doc, nil
}
