package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestNew_WritesToProvidedOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf

	l, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Info().Msg("hello")

	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Errorf("expected output to contain log message, got: %s", buf.String())
	}
}

func TestNew_LogToFileRequiresProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogToFile = true

	if _, err := New(cfg, nil); err == nil {
		t.Error("expected error when LogToFile is set without a LogDirProvider")
	}
}

func TestNew_LogToFileWritesUnderResolvedDir(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.LogToFile = true

	l, err := New(cfg, StaticDir(dir))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	path := l.LogFilePath()
	if path == "" {
		t.Fatal("expected a non-empty log file path")
	}
	if filepath.Dir(path) != dir {
		t.Errorf("log file %q not under resolved dir %q", path, dir)
	}

	l.Info().Msg("on disk")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Contains(data, []byte("on disk")) {
		t.Errorf("expected file contents to contain log message, got: %s", data)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug": DebugLevel,
		"INFO":  InfoLevel,
		"Warn":  WarnLevel,
		"error": ErrorLevel,
		"fatal": FatalLevel,
		"huh":   InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
