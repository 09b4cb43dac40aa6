package logging

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
)

// IsTemporary reports whether err looks like a failure worth retrying later:
// SMTP 4xx replies, network timeouts and expired deadlines.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var temp interface{ IsTemp() bool }
	if errors.As(err, &temp) && temp.IsTemp() {
		return true
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code >= 400 && tpErr.Code < 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return IsRateLimit(err)
}

// IsRateLimit reports whether a remote service rejected the call for sending too fast.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "rate_limit") || strings.Contains(msg, "429")
}
