// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure surfaced by the bulk client belongs to exactly one Kind, so
// callers can branch on the category without string matching while the
// message still carries the text the remote service produced.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Transport indicates a network or TLS failure before a response body was read.
	Transport Kind = "transport"
	// SoapFault indicates the password login was rejected by the SOAP endpoint.
	SoapFault Kind = "soap_fault"
	// OAuth indicates the refresh-token exchange was rejected.
	OAuth Kind = "oauth_error"
	// ServiceFault indicates a job or batch request was rejected.
	ServiceFault Kind = "service_fault"
	// Packaging indicates a local filesystem failure while building a payload.
	Packaging Kind = "packaging"
	// Config indicates missing or invalid client options.
	Config Kind = "config"
	// Unknown is reported for errors outside this taxonomy.
	Unknown Kind = "unknown"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// TransportError reports that a request could not be exchanged with host.
type TransportError struct {
	Host string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Host, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SoapLoginFault carries the faultstring of a rejected SOAP login.
type SoapLoginFault struct {
	Message string
}

func (e *SoapLoginFault) Error() string { return e.Message }

// OAuthError carries the error code and description of a rejected token refresh.
type OAuthError struct {
	Code        string
	Description string
}

func (e *OAuthError) Error() string { return e.Code + ": " + e.Description }

// ServiceFaultError carries the exception returned by a job or batch endpoint.
type ServiceFaultError struct {
	ExceptionCode    string
	ExceptionMessage string
}

func (e *ServiceFaultError) Error() string { return e.ExceptionCode + ": " + e.ExceptionMessage }

// PackagingError reports the local path that could not be packaged.
type PackagingError struct {
	Path string
	Err  error
}

func (e *PackagingError) Error() string {
	return fmt.Sprintf("packaging %s: %v", e.Path, e.Err)
}

func (e *PackagingError) Unwrap() error { return e.Err }

func (e *TransportError) Kind() Kind    { return Transport }
func (e *SoapLoginFault) Kind() Kind    { return SoapFault }
func (e *OAuthError) Kind() Kind        { return OAuth }
func (e *ServiceFaultError) Kind() Kind { return ServiceFault }
func (e *PackagingError) Kind() Kind    { return Packaging }

// KindOf returns the category of the first typed error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	var k interface{ Kind() Kind }
	if stderrors.As(err, &k) {
		return k.Kind()
	}
	return Unknown
}
