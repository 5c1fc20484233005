// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	bferrors "bulkforce/cli/internal/errors"
)

// FaultType represents the category of a remote rejection.
type FaultType int

const (
	FaultUnknown FaultType = iota
	FaultAuth
	FaultLimit
	FaultInvalidJob
	FaultInvalidBatch
	FaultUnavailable
)

// ParseFault categorizes a login, OAuth or job/batch fault.
func ParseFault(err error) FaultType {
	var sf *bferrors.ServiceFaultError
	var soap *bferrors.SoapLoginFault
	var oauth *bferrors.OAuthError

	switch {
	case stderrors.As(err, &soap), stderrors.As(err, &oauth):
		return FaultAuth
	case stderrors.As(err, &sf):
		return parseExceptionCode(sf.ExceptionCode)
	default:
		return FaultUnknown
	}
}

func parseExceptionCode(code string) FaultType {
	upper := strings.ToUpper(code)
	switch {
	case strings.Contains(upper, "SESSION"), strings.Contains(upper, "LOGIN"):
		return FaultAuth
	case strings.Contains(upper, "LIMIT"), strings.Contains(upper, "QUOTA"):
		return FaultLimit
	case strings.HasPrefix(upper, "INVALIDJOB"), strings.Contains(upper, "ENTITY"), strings.Contains(upper, "FIELD"):
		return FaultInvalidJob
	case strings.HasPrefix(upper, "INVALIDBATCH"), strings.Contains(upper, "CONTENT"):
		return FaultInvalidBatch
	case strings.Contains(upper, "UNAVAILABLE"), strings.Contains(upper, "TIMEOUT"):
		return FaultUnavailable
	default:
		return FaultUnknown
	}
}

// FormatFault renders a fault in a user-friendly way.
func FormatFault(err error) string {
	faultType := ParseFault(err)

	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Request Rejected"))
	builder.WriteString("\n\n")

	switch faultType {
	case FaultAuth:
		builder.WriteString("Salesforce did not accept your credentials.\n")
		builder.WriteString("This usually happens when:\n")
		builder.WriteString("  • The stored session has expired\n")
		builder.WriteString("  • The password changed and the security token was reset\n")
		builder.WriteString("  • The connected app credentials were revoked\n")

	case FaultLimit:
		builder.WriteString("Your org has reached a Bulk API limit.\n")
		builder.WriteString("Wait for running jobs to finish or check the daily batch allocation.\n")

	case FaultInvalidJob:
		builder.WriteString("The job definition was rejected.\n")
		builder.WriteString("Check the object name, the operation and the external id field.\n")

	case FaultInvalidBatch:
		builder.WriteString("The batch payload was rejected.\n")
		builder.WriteString("Check the column names and the attachment references.\n")

	case FaultUnavailable:
		builder.WriteString("Salesforce is temporarily unavailable.\n")
		builder.WriteString("Please try again in a few minutes.\n")

	default:
		builder.WriteString("Salesforce returned an error for this request.\n")
	}

	builder.WriteString("\n")

	if faultType == FaultAuth {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please run 'bulkforce login' and try again"))
		builder.WriteString("\n")
	}

	if err != nil {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	}

	return builder.String()
}

// PresentFault displays a formatted fault.
func PresentFault(err error) {
	fmt.Println()
	fmt.Println(FormatFault(err))
	fmt.Println()
}
