package app

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestRedactSecrets(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		secrets []string
		want    string
	}{
		{"replaces provided secret", "token tok-123 leaked", []string{"tok-123"}, "token [REDACTED] leaked"},
		{"no secrets leaves input", "nothing here", nil, "nothing here"},
		{"blank secret ignored", "nothing here", []string{"  "}, "nothing here"},
		{"multiple occurrences", "a b a", []string{"a"}, "[REDACTED] b [REDACTED]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RedactSecrets(tc.input, tc.secrets...)
			if got != tc.want {
				t.Fatalf("RedactSecrets(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestScrubHookRewritesEntries(t *testing.T) {
	hook := newScrubHook("sekret")
	entry := &logrus.Entry{
		Message: "auth failed for sekret",
		Data:    logrus.Fields{"header": "Bearer sekret", "count": 2},
	}
	if err := hook.Fire(entry); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if entry.Message != "auth failed for [REDACTED]" {
		t.Fatalf("message not scrubbed: %q", entry.Message)
	}
	if entry.Data["header"] != "Bearer [REDACTED]" {
		t.Fatalf("field not scrubbed: %q", entry.Data["header"])
	}
	if entry.Data["count"] != 2 {
		t.Fatalf("non-string field changed: %v", entry.Data["count"])
	}
}
