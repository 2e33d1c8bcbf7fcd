package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/sashabaranov/go-openai"
)

// Failure reasons recorded on queued transcripts and shown to the user.
const (
	ReasonNoClient   = "no client"
	ReasonOffline    = "no internet connection"
	ReasonRateLimit  = "rate limited"
	ReasonTimeout    = "API timeout"
	ReasonAuth       = "authentication failed"
	ReasonEmpty      = "empty response"
	reasonDetailSize = 50
)

// Classify turns a summarization failure into a short human-readable reason.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrEmptyResponse) {
		return ReasonEmpty
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}

	if status := httpStatus(err); status != 0 {
		switch {
		case status == http.StatusTooManyRequests:
			return ReasonRateLimit
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return ReasonAuth
		case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
			return ReasonTimeout
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENETUNREACH) {
		return ReasonOffline
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection"):
		return ReasonOffline
	case strings.Contains(msg, "rate"):
		return ReasonRateLimit
	case strings.Contains(msg, "timeout"):
		return ReasonTimeout
	}

	return fmt.Sprintf("%s: %s", errorTypeName(err), truncate(rootCause(err).Error(), reasonDetailSize))
}

func httpStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// errorTypeName gives the bare type name of the innermost error,
// e.g. "APIError" for *openai.APIError.
func errorTypeName(err error) string {
	name := fmt.Sprintf("%T", rootCause(err))
	name = strings.TrimPrefix(name, "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
