package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger that can also feed repeated warnings and errors
// to a LogCollector.
type Logger struct {
	zl        zerolog.Logger
	collector *LogCollector
	component string
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	zl := zerolog.New(out).With().Timestamp().CallerWithSkipFrameCount(4).Logger()
	return &Logger{zl: zl}, nil
}

func openOutput(target string) (io.Writer, error) {
	switch target {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	return f, nil
}

// NewNop returns a logger that discards everything. Used by tests and optional wiring.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Named returns a child logger tagging every event with component=name.
// The child shares the parent's collector.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		zl:        l.zl.With().Str("component", name).Logger(),
		collector: l.collector,
		component: name,
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.write(l.zl.Debug(), msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { l.write(l.zl.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) {
	l.write(l.zl.Warn(), msg, fields)
	if l.collector != nil && l.collector.config.IncludeWarn {
		l.collect(zerolog.WarnLevel, msg, fields)
	}
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.write(l.zl.Error(), msg, fields)
	if l.collector != nil {
		l.collect(zerolog.ErrorLevel, msg, fields)
	}
}

func (l *Logger) write(ev *zerolog.Event, msg string, fields []Field) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		f.add(ev)
	}
	ev.Msg(msg)
}

// collect is called from Warn/Error, so the user frame is two levels up.
func (l *Logger) collect(level zerolog.Level, msg string, fields []Field) {
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		if i := strings.LastIndex(file, "CoinPulse/"); i >= 0 {
			file = file[i+len("CoinPulse/"):]
		}
		caller = fmt.Sprintf("%s:%d", file, line)
	}

	kv := make(map[string]interface{}, len(fields)+1)
	if l.component != "" {
		kv["component"] = l.component
	}
	for _, f := range fields {
		kv[f.key] = f.plain()
	}
	l.collector.AddLog(level.String(), msg, kv, caller)
}

// AddCollector attaches a collector, replacing and flushing any previous one.
// Only children created afterwards share it.
func (l *Logger) AddCollector(config *CollectionConfig) {
	if l.collector != nil {
		l.collector.Close()
	}
	l.collector = NewLogCollector(config)
}

func (l *Logger) RemoveCollector() {
	if l.collector != nil {
		l.collector.Close()
		l.collector = nil
	}
}

// Field is one structured key/value pair.
type Field struct {
	key string
	val interface{}
	add func(ev *zerolog.Event)
}

// plain is the value as stored in collector entries.
func (f Field) plain() interface{} {
	if err, ok := f.val.(error); ok && err != nil {
		return err.Error()
	}
	return f.val
}

func String(key, value string) Field {
	return Field{key: key, val: value, add: func(ev *zerolog.Event) { ev.Str(key, value) }}
}

func Strings(key string, value []string) Field {
	return String(key, strings.Join(value, ", "))
}

func Int(key string, value int) Field {
	return Field{key: key, val: value, add: func(ev *zerolog.Event) { ev.Int(key, value) }}
}

func Int64(key string, value int64) Field {
	return Field{key: key, val: value, add: func(ev *zerolog.Event) { ev.Int64(key, value) }}
}

func Float64(key string, value float64) Field {
	return Field{key: key, val: value, add: func(ev *zerolog.Event) { ev.Float64(key, value) }}
}

func Bool(key string, value bool) Field {
	return Field{key: key, val: value, add: func(ev *zerolog.Event) { ev.Bool(key, value) }}
}

// Duration logs whole milliseconds.
func Duration(key string, value time.Duration) Field {
	return Int64(key, value.Milliseconds())
}

func Error(err error) Field {
	return Field{key: zerolog.ErrorFieldName, val: err, add: func(ev *zerolog.Event) { ev.Err(err) }}
}

func Any(key string, value interface{}) Field {
	return Field{key: key, val: value, add: func(ev *zerolog.Event) { ev.Interface(key, value) }}
}
