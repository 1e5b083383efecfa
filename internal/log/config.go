package log

import (
	"io"
	"os"
	"strings"
)

// Format represents the output format for logs
type Format int

const (
	// FormatJSON outputs logs in JSON format
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format
	FormatText
)

// String returns the string representation of the format
func (f Format) String() string {
	if f == FormatText {
		return "text"
	}
	return "json"
}

// ParseFormat parses a string into a Format. Unknown values fall back to JSON.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "text", "console":
		return FormatText
	default:
		return FormatJSON
	}
}

// Config holds configuration for the logger
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format (JSON or Text)
	Format Format

	// Output is where logs are written. Nil means stderr.
	Output io.Writer

	// AddSource includes source file and line number in logs
	AddSource bool

	// ServiceName is attached to every record as "service"
	ServiceName string

	// ServiceVersion is attached to every record as "version"
	ServiceVersion string
}

// DefaultConfig logs at WARN level in text format to stderr.
// Stdout is reserved for command output such as the JSON claim report.
func DefaultConfig() Config {
	return Config{
		Level:          LevelWarn,
		Format:         FormatText,
		Output:         os.Stderr,
		ServiceName:    "govern",
		ServiceVersion: "dev",
	}
}

// CIConfig logs at INFO level as JSON to stderr, for machine collection
func CIConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = LevelInfo
	cfg.Format = FormatJSON
	return cfg
}

func (c Config) writer() io.Writer {
	if c.Output == nil {
		return os.Stderr
	}
	return c.Output
}
