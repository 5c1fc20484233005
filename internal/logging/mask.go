// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the zap logger used across the client, secret
// masking for anything that may reach a log line, and error presentation.
//
// Request bodies carry passwords, OAuth client secrets and refresh tokens,
// and every authenticated call carries a session id. Mask must be applied
// before any of those are written out.
package logging

import (
	"regexp"
)

var (
	reSoapPassword = regexp.MustCompile(`(?i)(<(?:\w+:)?password>)([^<]*)(</(?:\w+:)?password>)`)
	reSessionTag   = regexp.MustCompile(`(?i)(<(?:\w+:)?sessionId>)([^<]*)(</(?:\w+:)?sessionId>)`)
	reFormSecret   = regexp.MustCompile(`(?i)((?:client_secret|refresh_token|access_token|password)=)([^&\s;]+)`)
	reSessionHdr   = regexp.MustCompile(`(?i)(x-sfdc-session:?\s*)(\S+)`)
	reSessionID    = regexp.MustCompile(`\b(00D[A-Za-z0-9]{12,15})![A-Za-z0-9._]+`)
	reURLCreds     = regexp.MustCompile(`(?i)(://)([^:/@\s]+):([^@\s]+)(@)`)
	reBearer       = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9._!-]+)`)
)

// Mask replaces sensitive values in the input string with "***".
// Session ids keep their org id prefix so log lines remain correlatable.
func Mask(s string) string {
	out := s
	out = reSoapPassword.ReplaceAllString(out, "$1***$3")
	out = reSessionTag.ReplaceAllString(out, "$1***$3")
	out = reFormSecret.ReplaceAllString(out, "$1***")
	out = reSessionHdr.ReplaceAllString(out, "$1***")
	out = reSessionID.ReplaceAllString(out, "$1!***")
	out = reURLCreds.ReplaceAllString(out, "$1*:*$4")
	out = reBearer.ReplaceAllString(out, "$1***")
	return out
}
