// Copyright (c) 2025 Bulkforce
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors provides user-friendly error handling for failed
// exchanges with Salesforce.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	bferrors "bulkforce/cli/internal/errors"
)

// Class is the category of a network failure.
type Class int

const (
	ClassGeneric Class = iota
	ClassTimeout
	ClassDNS
	ClassRefused
	ClassTLS
	ClassProxy
	ClassServer
)

// Classify returns the category of err.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassGeneric
	case isProxyError(err):
		return ClassProxy
	case isTimeoutError(err):
		return ClassTimeout
	case isDNSError(err):
		return ClassDNS
	case isConnectionRefusedError(err):
		return ClassRefused
	case isSSLError(err):
		return ClassTLS
	case isServerError(err.Error()):
		return ClassServer
	default:
		return ClassGeneric
	}
}

// IsNetworkError reports whether err is a transport failure rather than
// a rejection by the service.
func IsNetworkError(err error) bool {
	var te *bferrors.TransportError
	return errors.As(err, &te)
}

// FormatNetworkError displays a troubleshooting message for err and
// returns it wrapped for logging.
func FormatNetworkError(err error, context string) error {
	if err == nil {
		return nil
	}

	displayErrorMessage(err, context)

	return fmt.Errorf("network error: %w", err)
}

func displayErrorMessage(err error, context string) {
	host := hostOf(err)

	switch Classify(err) {
	case ClassProxy:
		showProxyError(context)
	case ClassTimeout:
		showTimeoutError(context)
	case ClassDNS:
		showDNSError(context, host)
	case ClassRefused:
		showConnectionRefusedError(context)
	case ClassTLS:
		showSSLError(context)
	case ClassServer:
		showServerError(context)
	default:
		showGenericError(context, host, err.Error())
	}
}

func hostOf(err error) string {
	var te *bferrors.TransportError
	if errors.As(err, &te) && te.Host != "" {
		return te.Host
	}
	return "login.salesforce.com"
}

func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

func isProxyError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "proxyconnect") ||
		strings.Contains(errStr, "proxy authentication required")
}

func isServerError(errStr string) bool {
	lower := strings.ToLower(errStr)
	return strings.Contains(lower, "internal server error") ||
		strings.Contains(lower, "bad gateway") ||
		strings.Contains(lower, "service unavailable") ||
		strings.Contains(lower, "gateway timeout")
}

func showTimeoutError(context string) {
	pterm.Printf("⏱️  Connection timeout while %s\n", context)
	pterm.Println()
	pterm.Println("Salesforce took too long to respond. This could mean:")
	pterm.Println("  • Slow internet connection")
	pterm.Println("  • A large batch is still uploading")
	pterm.Println("  • Network firewall is blocking the connection")
	pterm.Println()
	pterm.Println("Raise BULKFORCE_TIMEOUT or try again in a few moments.")
	pterm.Println()
}

func showDNSError(context, host string) {
	pterm.Printf("🌐 Cannot resolve server address while %s\n", context)
	pterm.Println()
	pterm.Printf("Unable to look up %s. Please check:\n", host)
	pterm.Println("  • Your internet connection is working")
	pterm.Println("  • The instance and host settings are spelled correctly")
	pterm.Println("  • No DNS-level blocking (corporate firewall, VPN)")
	pterm.Println()
}

func showConnectionRefusedError(context string) {
	pterm.Printf("🚫 Connection refused while %s\n", context)
	pterm.Println()
	pterm.Println("The server is not accepting connections. This could mean:")
	pterm.Println("  • Firewall is blocking the connection")
	pterm.Println("  • Wrong host or proxy port")
	pterm.Println()
}

func showSSLError(context string) {
	pterm.Printf("🔒 Secure connection failed while %s\n", context)
	pterm.Println()
	pterm.Println("Cannot establish a secure HTTPS connection. This could mean:")
	pterm.Println("  • SSL/TLS certificate issue")
	pterm.Println("  • Network proxy interfering with HTTPS")
	pterm.Println("  • System clock is incorrect")
	pterm.Println()
	pterm.Println("Try:")
	pterm.Println("  • Check your system date and time")
	pterm.Println("  • Verify network proxy settings")
	pterm.Println()
}

func showProxyError(context string) {
	pterm.Printf("🧭 Proxy connection failed while %s\n", context)
	pterm.Println()
	pterm.Println("The configured proxy did not forward the request. Please check:")
	pterm.Println("  • SALESFORCE_PROXY or HTTPS_PROXY points at a reachable proxy")
	pterm.Println("  • SALESFORCE_PROXY_USERNAME and SALESFORCE_PROXY_PASSWORD are correct")
	pterm.Println()
}

func showServerError(context string) {
	pterm.Printf("⚠️  Server error while %s\n", context)
	pterm.Println()
	pterm.Println("Salesforce encountered an internal error.")
	pterm.Println("This is not a problem with your setup. Check https://status.salesforce.com")
	pterm.Println("and try again in a few minutes.")
	pterm.Println()
}

func showGenericError(context, host, errDetails string) {
	pterm.Printf("❌ Cannot reach Salesforce while %s\n", context)
	pterm.Println()
	pterm.Println("Please check:")
	pterm.Println("  • Your internet connection")
	pterm.Printf("  • Whether %s is accessible from your network\n", host)
	pterm.Println("  • Firewall settings that might block HTTPS requests")
	pterm.Println()

	if errDetails != "" {
		shortErr := errDetails
		if len(shortErr) > 100 {
			shortErr = shortErr[:100] + "..."
		}
		pterm.Debug.Printf("Technical details: %s\n", shortErr)
		pterm.Println()
	}
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
