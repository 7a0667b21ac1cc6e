package logger

import (
	"os"
	"strings"
	"testing"

	"github.com/cobmax/reconcile/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string // String representation of zapcore.Level
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "info"}, // empty defaults to info
		{"warn", "warn"},
		{"error", "error"},
		{"unknown", "info"}, // unknown defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level := parseLevel(tt.input)
			if level.String() != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, level.String(), tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.LoggingConfig
	}{
		{"json to stdout", &config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{"text to stderr", &config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}},
		{"defaults", &config.LoggingConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() returned error: %v", err)
			}
			if log == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestNewFileOutput(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := tmpDir + "/reconcile.log"

	log, err := New(&config.LoggingConfig{Level: "info", Format: "json", Output: logFile})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	log.Infow("Snapshot treated", "pipeline", "varejo", "valid", 42)
	_ = log.Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "Snapshot treated") {
		t.Errorf("log file missing expected entry, got: %s", content)
	}
	if !strings.Contains(string(content), "varejo") {
		t.Errorf("log file missing structured field, got: %s", content)
	}
}

func TestNewDefault(t *testing.T) {
	log := NewDefault()
	if log == nil {
		t.Fatal("NewDefault() returned nil")
	}
}

func TestContextMethods(t *testing.T) {
	log := NewDefault()

	if l := log.WithPipeline("varejo"); l == nil {
		t.Error("WithPipeline returned nil")
	}
	if l := log.WithStage("batimento"); l == nil {
		t.Error("WithStage returned nil")
	}
	if l := log.WithArtifact("/data/output/batimento.zip"); l == nil {
		t.Error("WithArtifact returned nil")
	}

	// chaining keeps the wrapper type
	chained := log.WithPipeline("varejo").WithStage("baixa").WithArtifact("x.zip")
	if chained == nil {
		t.Error("chained context methods returned nil")
	}
}
