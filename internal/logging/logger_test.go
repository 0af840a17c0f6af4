package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/novvoo/pdfstitch/internal/config"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.Default()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	if l.Color() {
		t.Error("color should be off for ColorNever")
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close without file: %v", err)
	}
}

func TestNewLogger_ColorAlways(t *testing.T) {
	cfg := config.Default()
	cfg.ColorMode = config.ColorAlways
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	if !l.Color() {
		t.Error("color should be on for ColorAlways")
	}
}

func TestNewLogger_WithFile(t *testing.T) {
	cfg := config.Default()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "pdfstitch.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.out, l.errOut = &bytes.Buffer{}, &bytes.Buffer{}
	l.Info("to file")
	l.Plain("summary line")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("[INFO] to file")) || !bytes.Contains(b, []byte("summary line")) {
		t.Errorf("log file content: %s", string(b))
	}
}

func TestLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, false)

	l.Info("info %d", 1)
	l.Success("ok")
	l.Warn("careful")
	l.Error("broken")
	l.Debug("hidden")

	for _, want := range []string{"[INFO] info 1", "[SUCCESS] ok", "[WARN] careful"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stdout missing %q: %s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "broken") || !strings.Contains(errOut.String(), "[ERROR] broken") {
		t.Errorf("errors should go to stderr only: out=%q err=%q", out.String(), errOut.String())
	}
	if strings.Contains(out.String(), "hidden") {
		t.Error("debug printed without verbose")
	}
}

func TestLogger_Debug(t *testing.T) {
	var out bytes.Buffer
	l := New(&out, &out, true)
	l.Debug("shown %s", "now")
	if !strings.Contains(out.String(), "[DEBUG] shown now") {
		t.Errorf("debug missing: %q", out.String())
	}
}

func TestLogger_Color(t *testing.T) {
	var out bytes.Buffer
	l := New(&out, &out, false)
	l.color = true
	l.Warn("tinted")
	if !strings.Contains(out.String(), yellow+"[WARN]"+reset+" tinted") {
		t.Errorf("expected ANSI colored level: %q", out.String())
	}
}
