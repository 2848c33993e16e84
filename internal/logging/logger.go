// Package logging wraps logrus with rotating file output and the
// engine's structured event helpers.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mkarlsen/stratagem/internal/models"
)

type Config struct {
	Level      string
	Format     string // text or json
	Output     string // stdout, file or both
	Directory  string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger carries a logrus entry so field chaining keeps its context.
type Logger struct {
	*logrus.Entry
}

func New(cfg Config) *Logger {
	base := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if cfg.Format == "json" {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	switch cfg.Output {
	case "file":
		base.SetOutput(fileWriter(cfg))
	case "both":
		base.SetOutput(io.MultiWriter(os.Stdout, fileWriter(cfg)))
	default:
		base.SetOutput(os.Stdout)
	}

	return &Logger{Entry: logrus.NewEntry(base)}
}

func fileWriter(cfg Config) io.Writer {
	dir := cfg.Directory
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create log dir: %v\n", err)
		return os.Stdout
	}
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, "stratagem.log"),
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// Component returns a child logger tagged with a component field.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Entry: l.Entry.WithField("component", name)}
}

func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

func (l *Logger) WithError(err error) *Logger {
	return &Logger{Entry: l.Entry.WithError(err)}
}

// LogQuery records a classified query.
func (l *Logger) LogQuery(query, category string, symbols []string) {
	l.Entry.WithFields(logrus.Fields{
		"event":    "query",
		"category": category,
		"symbols":  strings.Join(symbols, ","),
	}).Info(query)
}

// LogPlan records the plan built for a query.
func (l *Logger) LogPlan(category string, taskIDs []string) {
	l.Entry.WithFields(logrus.Fields{
		"event":    "plan",
		"category": category,
		"tasks":    len(taskIDs),
	}).Info(strings.Join(taskIDs, " "))
}

// LogOutcome records one task outcome; failures log at warn with their
// reason.
func (l *Logger) LogOutcome(taskID, toolName string, outcome *models.ToolOutcome) {
	if outcome == nil {
		return
	}
	fields := logrus.Fields{
		"event":   "task_outcome",
		"task":    taskID,
		"tool":    toolName,
		"success": outcome.Success,
	}
	if outcome.Success {
		l.Entry.WithFields(fields).Info("task completed")
		return
	}
	fields["reason"] = outcome.Error
	l.Entry.WithFields(fields).Warn("task failed")
}

var (
	defaultMu     sync.Mutex
	defaultLogger *Logger
)

// Init installs the process-wide default logger.
func Init(cfg Config) *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = New(cfg)
	return defaultLogger
}

// Default returns the process-wide logger, creating a stdout text logger
// on first use.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(Config{Level: "info"})
	}
	return defaultLogger
}

func Debugf(format string, args ...any) { Default().Entry.Debugf(format, args...) }
func Infof(format string, args ...any)  { Default().Entry.Infof(format, args...) }
func Warnf(format string, args ...any)  { Default().Entry.Warnf(format, args...) }
func Errorf(format string, args ...any) { Default().Entry.Errorf(format, args...) }
