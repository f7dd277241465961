package config

import (
	"fmt"
	"os"
	"strings"
)

// Defaults used when neither the config file, the environment nor a flag
// provides a value.
const (
	DefaultListen    = ":3001"
	DefaultUploadDir = "uploads"
	DefaultOutput    = "annotated.jpeg"
	DefaultLogLevel  = "info"
)

// Notify holds notification settings.
type Notify struct {
	Export bool
	Copy   bool
	Upload bool
}

// Config holds the application configuration.
type Config struct {
	Listen    string
	UploadDir string
	PublicURL string
	Output    string
	LogLevel  string
	Theme     string
	Notify    Notify
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Listen:    DefaultListen,
		UploadDir: DefaultUploadDir,
		Output:    DefaultOutput,
		LogLevel:  DefaultLogLevel,
	}
}

// envKeys maps POLYMARK_* variables onto root keys.
var envKeys = []struct{ env, key string }{
	{"POLYMARK_LISTEN", "listen"},
	{"POLYMARK_UPLOAD_DIR", "upload_dir"},
	{"POLYMARK_PUBLIC_URL", "public_url"},
	{"POLYMARK_OUTPUT", "output"},
	{"POLYMARK_LOG_LEVEL", "log_level"},
	{"POLYMARK_THEME", "theme"},
}

// ApplyEnv overrides root keys from the environment.
func (c *Config) ApplyEnv() {
	for _, e := range envKeys {
		if v := strings.TrimSpace(os.Getenv(e.env)); v != "" {
			_ = setRootField(c, e.key, v)
		}
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	root := []struct{ key, value string }{
		{"listen", c.Listen},
		{"upload_dir", c.UploadDir},
		{"public_url", c.PublicURL},
		{"output", c.Output},
		{"log_level", c.LogLevel},
		{"theme", c.Theme},
	}
	for _, kv := range root {
		if kv.value != "" {
			fmt.Fprintf(&sb, "%s = %s\n", kv.key, kv.value)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "upload = %v\n", c.Notify.Upload)

	return sb.String()
}
