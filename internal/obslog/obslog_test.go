package obslog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/park285/Cheese-Tafl/internal/config"
)

func TestBuildJSONConsole(t *testing.T) {
	var buf bytes.Buffer
	l, err := Build(config.LogConfig{Level: "info", Format: "json", Console: true}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	l.Debug("hidden")
	l.Info("session_start", zap.String("session_id", "s1"))
	_ = l.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "session_start" || rec["session_id"] != "s1" || rec["level"] != "info" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestBuildFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tafl.log")
	l, err := Build(config.LogConfig{Level: "debug", Format: "console", ToFile: true, File: path}, zapcore.AddSync(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	l.Debug("written")
	_ = l.Sync()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "written") {
		t.Fatalf("log file missing entry: %q", data)
	}
}

func TestSetNilRestoresNop(t *testing.T) {
	Set(nil)
	if L() == nil {
		t.Fatalf("logger must never be nil")
	}
	L().Info("ignored")
}

func TestParseLevel(t *testing.T) {
	if parseLevel(" WARNING ") != zapcore.WarnLevel {
		t.Fatalf("warning should map to warn")
	}
	if parseLevel("nonsense") != zapcore.InfoLevel {
		t.Fatalf("unknown level should default to info")
	}
}
