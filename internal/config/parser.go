package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads configuration from an io.Reader. Unknown keys and sections are
// ignored so older binaries can read newer files.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}

		// Key = Value or Key: Value
		var parts []string
		switch {
		case strings.Contains(line, "="):
			parts = strings.SplitN(line, "=", 2)
		case strings.Contains(line, ":"):
			parts = strings.SplitN(line, ":", 2)
		default:
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := unquote(strings.TrimSpace(parts[1]))

		switch section {
		case "":
			if err := setRootField(cfg, key, value); err != nil {
				return nil, fmt.Errorf("line %d: error in root section: %w", lineNo, err)
			}
		case "notify":
			if err := setNotifyField(&cfg.Notify, key, value); err != nil {
				return nil, fmt.Errorf("line %d: error in section [notify]: %w", lineNo, err)
			}
		}
	}

	return cfg, scanner.Err()
}

func unquote(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
		return value[1 : len(value)-1]
	}
	return value
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "listen":
		cfg.Listen = value
	case "upload_dir":
		cfg.UploadDir = value
	case "public_url":
		cfg.PublicURL = strings.TrimRight(value, "/")
	case "output":
		cfg.Output = value
	case "theme":
		cfg.Theme = value
	case "log_level":
		switch strings.ToLower(value) {
		case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
			cfg.LogLevel = strings.ToLower(value)
		default:
			return fmt.Errorf("invalid log_level %q", value)
		}
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "export":
		n.Export = b
	case "copy":
		n.Copy = b
	case "upload":
		n.Upload = b
	}
	return nil
}
