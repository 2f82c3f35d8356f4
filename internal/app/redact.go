package app

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const redactedPlaceholder = "[REDACTED]"

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// RedactSecrets replaces known secret values with a placeholder.
// Keep this conservative: we only replace provided values and the
// token env var.
func RedactSecrets(input string, secrets ...string) string {
	if strings.TrimSpace(input) == "" {
		return input
	}

	known := append([]string{}, secrets...)
	known = append(known, os.Getenv("DOCCHAT_TOKEN"))
	known = uniqueNonEmpty(known)
	if len(known) == 0 {
		return input
	}

	out := input
	for _, s := range known {
		out = strings.ReplaceAll(out, s, redactedPlaceholder)
	}
	return out
}

// scrubHook strips the API token out of every log entry so a pasted log
// file never leaks credentials.
type scrubHook struct {
	secrets []string
}

func newScrubHook(secrets ...string) *scrubHook {
	return &scrubHook{secrets: uniqueNonEmpty(secrets)}
}

func (h *scrubHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *scrubHook) Fire(entry *logrus.Entry) error {
	entry.Message = RedactSecrets(entry.Message, h.secrets...)
	for k, v := range entry.Data {
		if s, ok := v.(string); ok {
			entry.Data[k] = RedactSecrets(s, h.secrets...)
		}
	}
	return nil
}
