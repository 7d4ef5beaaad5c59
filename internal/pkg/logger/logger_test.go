package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(DEBUG)
	SetRedactPII(true)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(INFO)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{" warn ", WARN},
		{"warning", WARN},
		{"error", ERROR},
		{"", INFO},
		{"verbose", INFO},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLogWritesJSONAndRedactsEmail(t *testing.T) {
	buf := captureOutput(t)

	Info("row rejected", "email", "john.doe@example.com", "note", "contact ab@example.com")

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "row rejected", entry["msg"])
	assert.Equal(t, "jo***@example.com", entry["email"])
	assert.Equal(t, "contact ***@example.com", entry["note"])
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(WARN)

	Info("hidden")
	Warn("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"shown"`)
}

func TestWithAddsFields(t *testing.T) {
	buf := captureOutput(t)

	With("bucket", "uploads", "key", "a.csv").Info("object ingested", "inserted", 3)

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "uploads", entry["bucket"])
	assert.Equal(t, "a.csv", entry["key"])
	assert.Equal(t, "3", entry["inserted"])
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}

func TestRedactPIIValue(t *testing.T) {
	assert.Equal(t, "***", redactPIIValue("PG_PASSWORD", "hunter2"))
	assert.Equal(t, "***", redactPIIValue("secret_key", "abc"))
	assert.Equal(t, "jo***@x.com", redactPIIValue("Email", "john@x.com"))
	assert.Equal(t, "row 3: jo***@x.com rejected", redactPIIValue("error", "row 3: john@x.com rejected"))
	assert.Equal(t, "uploads/a.csv", redactPIIValue("key", "uploads/a.csv"))
	assert.Equal(t, "***@***", RedactEmail("a@b@c.com"))
}
