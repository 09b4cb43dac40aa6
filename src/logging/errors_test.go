package logging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type tempErr struct{ temp bool }

func (e tempErr) Error() string { return "send failed" }
func (e tempErr) IsTemp() bool  { return e.temp }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTemporary(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), true},
		{"smtp 421", &textproto.Error{Code: 421, Msg: "try later"}, true},
		{"smtp 550", &textproto.Error{Code: 550, Msg: "mailbox unavailable"}, false},
		{"send error temp", fmt.Errorf("wrapped: %w", tempErr{temp: true}), true},
		{"send error perm", tempErr{temp: false}, false},
		{"net timeout", timeoutErr{}, true},
		{"rate limit", errors.New("HTTP 429 Too Many Requests"), true},
		{"plain", errors.New("auth failed"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTemporary(tc.err); got != tc.want {
				t.Errorf("IsTemporary(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestSetupWithOutput(t *testing.T) {
	defer logrus.SetOutput(logrus.StandardLogger().Out)

	var buf bytes.Buffer
	SetupWithOutput(&buf, "warn", "json")
	if logrus.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %s", logrus.GetLevel())
	}

	logrus.Info("hidden")
	logrus.WithField("k", "v").Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"k":"v"`) {
		t.Errorf("expected JSON field in output, got %s", out)
	}

	buf.Reset()
	SetupWithOutput(&buf, "bogus", "text")
	if logrus.GetLevel() != logrus.InfoLevel {
		t.Errorf("unknown level should fall back to info, got %s", logrus.GetLevel())
	}
}
