package config

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// Load reads, strictly decodes, and normalizes the configuration at path.
// The returned Config is complete: message text is unescaped and any
// referenced destination/message files are already folded in.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.normalize(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes the file without normalization. Unknown fields are
// rejected so typos fail fast instead of silently defaulting.
func Parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("config %s: trailing data", path)
		}
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	return nil
}

// RequireAuditChat checks the audit target that dispatch and stats modes
// depend on. Leave mode works without one, so this is not part of Validate.
func (c *Config) RequireAuditChat() error {
	if c.AuditChat == "" {
		return errors.New("audit_chat is required")
	}
	return nil
}

func (c *Config) normalize(baseDir string) error {
	if c.Message.File != "" {
		b, err := os.ReadFile(resolvePath(baseDir, c.Message.File))
		if err != nil {
			return fmt.Errorf("message.file: %w", err)
		}
		c.Message.Text = string(b)
		c.Message.File = ""
	}
	c.Message.Text = UnescapeText(c.Message.Text)

	for i, d := range c.Destinations {
		c.Destinations[i] = strings.TrimSpace(d)
	}
	if c.DestinationsFile != "" {
		extra, err := readDestinationsFile(resolvePath(baseDir, c.DestinationsFile))
		if err != nil {
			return fmt.Errorf("destinations_file: %w", err)
		}
		c.Destinations = append(c.Destinations, extra...)
		c.DestinationsFile = ""
	}

	out := c.Destinations[:0]
	for _, d := range c.Destinations {
		if d != "" {
			out = append(out, d)
		}
	}
	c.Destinations = out

	c.AuditChat = strings.TrimSpace(c.AuditChat)
	return nil
}

// UnescapeText turns literal "\n" sequences into newlines and normalizes
// CRLF line endings. Config formats make multi-line message text awkward,
// so operators write escaped newlines instead.
func UnescapeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, `\n`, "\n")
	return strings.TrimSpace(s)
}

func readDestinationsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// coerceToJSONBytes converts YAML config to JSON bytes so we can re-use the
// strict JSON decoder (DisallowUnknownFields) for both formats.
//
// Returns (jsonBytes, format, err) where format is "json" or "yaml".
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, "json", nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, "yaml", fmt.Errorf("yaml unmarshal: %w", err)
	}

	v = normalizeYAML(v)

	j, err := json.Marshal(v)
	if err != nil {
		return nil, "yaml", fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, "yaml", nil
}

// normalizeYAML ensures all map keys are strings so the result can be JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
