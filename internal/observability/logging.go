// Package observability provides the engine's structured logger: a
// log/slog wrapper adding owner/channel correlation and redaction of
// secrets (provider API keys, MCP server env vars, bearer tokens) that
// might otherwise land in tool args or error strings (spec.md §7).
package observability

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// Logger wraps a slog.Logger with redaction and context correlation.
type Logger struct {
	logger  *slog.Logger
	config  LogConfig
	redacts []*regexp.Regexp
}

// LogConfig configures a Logger.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string
	// Format is "json" or "text". Defaults to "text".
	Format string
	// Output defaults to os.Stdout.
	Output io.Writer
	// AddSource includes the file:line the log call came from.
	AddSource bool
	// RedactPatterns are extra regexes applied on top of DefaultRedactPatterns.
	RedactPatterns []string
}

// ContextKey is the type of context keys this package defines.
type ContextKey string

const (
	OwnerKeyKey  ContextKey = "owner_key"
	ChannelKey   ContextKey = "channel"
	ToolNameKey  ContextKey = "tool_name"
	CronJobIDKey ContextKey = "cron_job_id"
)

// DefaultRedactPatterns catches the shapes of secret most likely to leak
// through this engine: provider API keys passed in config or tool
// errors, MCP server environment variables, and bearer tokens used by
// web_fetch.
var DefaultRedactPatterns = []string{
	`(?i)(api[_-]?key|apikey)[\s:=]+["']?([a-zA-Z0-9_\-]{16,})["']?`,
	`(?i)(bearer|token)[\s:]+([a-zA-Z0-9_\-.]{16,})`,
	`(?i)(secret|password|passwd|pwd)[\s:=]+["']?([^\s"']{8,})["']?`,
	`sk-ant-[a-zA-Z0-9_-]{95,}`,
	`sk-[a-zA-Z0-9]{48,}`,
	`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`,
}

// NewLogger builds a Logger from config, defaulting Output to os.Stdout,
// Level to "info", and Format to "text".
func NewLogger(config LogConfig) *Logger {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Level == "" {
		config.Level = "info"
	}
	if config.Format == "" {
		config.Format = "text"
	}

	opts := &slog.HandlerOptions{Level: LogLevelFromString(config.Level), AddSource: config.AddSource}
	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}

	patterns := append(append([]string{}, DefaultRedactPatterns...), config.RedactPatterns...)
	redacts := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			redacts = append(redacts, re)
		}
	}

	return &Logger{logger: slog.New(handler), config: config, redacts: redacts}
}

// WithContext returns a Logger that annotates every record with the
// owner key, channel, tool name, and cron job id found in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var attrs []any
	if v, ok := ctx.Value(OwnerKeyKey).(string); ok && v != "" {
		attrs = append(attrs, "owner_key", v)
	}
	if v, ok := ctx.Value(ChannelKey).(string); ok && v != "" {
		attrs = append(attrs, "channel", v)
	}
	if v, ok := ctx.Value(ToolNameKey).(string); ok && v != "" {
		attrs = append(attrs, "tool_name", v)
	}
	if v, ok := ctx.Value(CronJobIDKey).(string); ok && v != "" {
		attrs = append(attrs, "cron_job_id", v)
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{logger: l.logger.With(attrs...), config: l.config, redacts: l.redacts}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) { l.log(ctx, slog.LevelDebug, msg, args...) }
func (l *Logger) Info(ctx context.Context, msg string, args ...any)  { l.log(ctx, slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(ctx context.Context, msg string, args ...any)  { l.log(ctx, slog.LevelWarn, msg, args...) }
func (l *Logger) Error(ctx context.Context, msg string, args ...any) { l.log(ctx, slog.LevelError, msg, args...) }

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	msg = l.redactString(msg)
	redacted := make([]any, len(args))
	for i, a := range args {
		redacted[i] = l.redactValue(a)
	}
	l.WithContext(ctx).logger.Log(ctx, level, msg, redacted...)
}

func (l *Logger) redactValue(v any) any {
	switch val := v.(type) {
	case string:
		return l.redactString(val)
	case error:
		return l.redactString(val.Error())
	case []byte:
		return l.redactString(string(val))
	default:
		if b, err := json.Marshal(v); err == nil {
			return l.redactString(string(b))
		}
		return v
	}
}

func (l *Logger) redactString(s string) string {
	for _, re := range l.redacts {
		s = re.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

// WithFields returns a Logger with args attached to every subsequent
// record.
func (l *Logger) WithFields(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...), config: l.config, redacts: l.redacts}
}

// Slog exposes the underlying slog.Logger for packages (sandbox,
// scheduler, mcp) that accept a plain *slog.Logger rather than this
// type.
func (l *Logger) Slog() *slog.Logger { return l.logger }

func WithOwnerKey(ctx context.Context, ownerKey string) context.Context {
	return context.WithValue(ctx, OwnerKeyKey, ownerKey)
}

func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, ChannelKey, channel)
}

func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ToolNameKey, name)
}

func WithCronJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CronJobIDKey, id)
}

// LogLevelFromString converts a level name to a slog.Level, defaulting
// to Info for anything unrecognized.
func LogLevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
