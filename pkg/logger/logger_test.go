package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"redditdl/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{
			name:    "valid config with info level",
			cfg:     &config.LoggingConfig{Level: "info"},
			wantErr: false,
		},
		{
			name:    "valid config without colors",
			cfg:     &config.LoggingConfig{Level: "debug", NoColor: true},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			cfg:     &config.LoggingConfig{Level: "invalid"},
			wantErr: true,
		},
		{
			name:    "config with file output",
			cfg:     &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "redditdl.log")},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: make(map[string]interface{})}
}

func TestConsoleGoesToGivenWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := newWithWriter(&config.LoggingConfig{Level: "info", NoColor: true}, &buf)
	if err != nil {
		t.Fatalf("newWithWriter() error = %v", err)
	}

	l.WithField("subreddit", "pics").Info("Page fetched")

	out := buf.String()
	if !strings.Contains(out, "Page fetched") {
		t.Errorf("expected message in console output, got %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("expected no ANSI escapes with NoColor, got %q", out)
	}
	if !strings.Contains(out, "subreddit=pics") {
		t.Errorf("expected field in console output, got %q", out)
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	base := newBufferLogger(&buf)

	child := base.WithField("post_id", "abc")
	child.Info("child")
	base.Info("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"post_id":"abc"`) {
		t.Errorf("child line missing field: %s", lines[0])
	}
	if strings.Contains(lines[1], "post_id") {
		t.Errorf("parent line leaked child field: %s", lines[1])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	if l.WithError(nil) != Logger(l) {
		t.Error("WithError(nil) should return the same logger")
	}

	l.WithError(errors.New("connection reset")).Error("download failed")

	out := buf.String()
	if !strings.Contains(out, "download failed") || !strings.Contains(out, "connection reset") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestStructuredFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf)

	l.WithFields(map[string]interface{}{
		"url":      "https://i.imgur.com/a.jpg",
		"bytes":    int64(2048),
		"score":    10,
		"over_18":  false,
		"duration": 5 * time.Second,
		"urls":     []string{"a", "b"},
	}).InfoWithFields("downloaded", map[string]interface{}{"page": 2})

	out := buf.String()
	for _, want := range []string{`"url":"https://i.imgur.com/a.jpg"`, `"bytes":2048`, `"score":10`, `"over_18":false`, `"page":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestLogRequestLevels(t *testing.T) {
	tl := NewTestLogger()

	LogRequest(tl, "GET", "https://www.reddit.com/r/pics.json", 200, 10*time.Millisecond)
	LogRequest(tl, "GET", "https://www.reddit.com/r/nope.json", 404, time.Millisecond)
	LogRequest(tl, "GET", "https://www.reddit.com/r/pics.json", 503, time.Millisecond)

	msgs := tl.GetMessages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Level != "DEBUG" || msgs[1].Level != "WARN" || msgs[2].Level != "ERROR" {
		t.Errorf("unexpected levels: %s %s %s", msgs[0].Level, msgs[1].Level, msgs[2].Level)
	}
	if msgs[1].Fields["status_code"] != 404 {
		t.Errorf("expected status_code field, got %v", msgs[1].Fields)
	}
}

func TestTestLoggerChildrenShareSink(t *testing.T) {
	tl := NewTestLogger()

	tl.WithField("run_id", "r1").WithError(errors.New("boom")).Warn("skipped")
	tl.Info("done")

	msgs := tl.GetMessages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Fields["run_id"] != "r1" || msgs[0].Error == nil {
		t.Errorf("child context lost: %+v", msgs[0])
	}
	if !tl.HasMessage("done") || tl.HasError() {
		t.Errorf("unexpected capture state: %s", tl.String())
	}

	tl.Clear()
	if len(tl.GetMessages()) != 0 {
		t.Error("Clear() should drop captured messages")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	tl := NewTestLogger()
	if OrNop(tl) != Logger(tl) {
		t.Error("OrNop should keep a non-nil logger")
	}
}
