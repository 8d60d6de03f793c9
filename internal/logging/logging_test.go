package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupLevelByEnvironment(t *testing.T) {
	tests := []struct {
		env  string
		want zerolog.Level
	}{
		{"development", zerolog.DebugLevel},
		{"production", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := Setup(tt.env).GetLevel(); got != tt.want {
			t.Errorf("Setup(%q) level = %s, want %s", tt.env, got, tt.want)
		}
	}
}

func TestSetupWithWriterCopiesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter("production", &buf)
	logger.Info().Str("set_id", "abc").Msg("planned")

	if !strings.Contains(buf.String(), `"set_id":"abc"`) {
		t.Fatalf("expected JSON copy of the log line, got %q", buf.String())
	}
}
