package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
telegram:
  token: "123:abc"
destinations:
  - "-1001234567890"
  - "@somechannel"
message:
  text: 'first line\nsecond line'
audit_chat: "-100555"
intervals:
  message: "5s"
  round: "1m"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Destinations) != 2 {
		t.Fatalf("destinations = %v", cfg.Destinations)
	}
	if want := "first line\nsecond line"; cfg.Message.Text != want {
		t.Fatalf("message text = %q, want %q", cfg.Message.Text, want)
	}
	if cfg.MessageInterval() != 5*time.Second {
		t.Fatalf("message interval = %v", cfg.MessageInterval())
	}
	if cfg.RoundInterval() != time.Minute {
		t.Fatalf("round interval = %v", cfg.RoundInterval())
	}
}

func TestLoadIntervalDefaults(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unset", raw: ""},
		{name: "invalid", raw: "not-a-duration"},
		{name: "negative", raw: "-5s"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Intervals: IntervalsConfig{Message: tt.raw, Round: tt.raw}}
			if got := cfg.MessageInterval(); got != DefaultMessageInterval {
				t.Fatalf("MessageInterval = %v, want %v", got, DefaultMessageInterval)
			}
			if got := cfg.RoundInterval(); got != DefaultRoundInterval {
				t.Fatalf("RoundInterval = %v, want %v", got, DefaultRoundInterval)
			}
		})
	}
}

func TestLoadDestinationsFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "dests.txt", "# comment\n-100111\n\n@second\n")
	path := writeFile(t, dir, "config.yaml", `
telegram:
  token: "123:abc"
destinations:
  - "-100999"
destinations_file: "dests.txt"
message:
  text: "hi"
audit_chat: "-100555"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"-100999", "-100111", "@second"}
	if len(cfg.Destinations) != len(want) {
		t.Fatalf("destinations = %v, want %v", cfg.Destinations, want)
	}
	for i := range want {
		if cfg.Destinations[i] != want[i] {
			t.Fatalf("destinations[%d] = %q, want %q", i, cfg.Destinations[i], want[i])
		}
	}
}

func TestLoadMessageFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "msg.txt", "line one\r\nline two\n")
	path := writeFile(t, dir, "config.yaml", `
telegram:
  token: "123:abc"
destinations: ["-1001"]
message:
  file: "msg.txt"
audit_chat: "-100555"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := "line one\nline two"; cfg.Message.Text != want {
		t.Fatalf("message text = %q, want %q", cfg.Message.Text, want)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
telegram:
  token: "123:abc"
destinatoins: ["typo"]
message: { text: "hi" }
audit_chat: "x"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
telegram: { token: "  " }
destinations: ["-1001"]
message: { text: "hi" }
audit_chat: "x"
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("err = %v, want token error", err)
	}
}

func TestRequireAuditChat(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
telegram: { token: "123:abc" }
destinations: ["-1001"]
message: { text: "hi" }
`)
	// Loading without audit_chat succeeds; the leave mode has no use for it.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.RequireAuditChat(); err == nil || !strings.Contains(err.Error(), "audit_chat") {
		t.Fatalf("err = %v, want audit_chat error", err)
	}

	cfg.AuditChat = "-100555"
	if err := cfg.RequireAuditChat(); err != nil {
		t.Fatalf("RequireAuditChat: %v", err)
	}
}

func TestUnescapeText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{`a\nb`, "a\nb"},
		{"a\r\nb", "a\nb"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := UnescapeText(tt.in); got != tt.want {
			t.Fatalf("UnescapeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
