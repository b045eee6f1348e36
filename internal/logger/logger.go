// Package logger provides the leveled file+console logger used throughout
// rkv's ambient stack: one process-wide sink, initialized once, mirroring
// warnings and errors to the console while keeping debug/info in the log
// file only. NodeWarn/NodeError/SlotEvent tag entries with the cluster
// node or slot a log line is about, since rkv's log output is dominated by
// per-node connection and per-slot routing events rather than the
// migration-job progress lines boomballa-df2redis/internal/logger was
// built to carry.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level lists supported log severities.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// Logger writes to a log file plus the console.
type Logger struct {
	mu          sync.Mutex
	fileLogger  *log.Logger
	consoleLog  *log.Logger
	level       Level
	logFile     *os.File
	logFilePath string
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init creates the global logger. logFilePrefix names the file under
// logDir, e.g. "rkvctl" or "router". An empty prefix falls back to "rkv".
func Init(logDir string, level Level, logFilePrefix string) error {
	var initErr error
	once.Do(func() {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			initErr = fmt.Errorf("create log dir: %w", err)
			return
		}
		if logFilePrefix == "" {
			logFilePrefix = "rkv"
		}
		logFileName := fmt.Sprintf("%s.log", logFilePrefix)
		logFilePath := filepath.Join(logDir, logFileName)

		logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			initErr = fmt.Errorf("open log file: %w", err)
			return
		}

		defaultLogger = &Logger{
			fileLogger:  log.New(logFile, "", 0),
			consoleLog:  log.New(os.Stdout, "", 0),
			level:       level,
			logFile:     logFile,
			logFilePath: logFilePath,
		}
	})
	return initErr
}

// Close shuts down the log file.
func Close() error {
	if defaultLogger != nil && defaultLogger.logFile != nil {
		return defaultLogger.logFile.Close()
	}
	return nil
}

// GetLogFilePath returns the backing log file path, or "" if Init was
// never called.
func GetLogFilePath() string {
	if defaultLogger != nil {
		return defaultLogger.logFilePath
	}
	return ""
}

func formatMessage(level Level, format string, args ...interface{}) string {
	timestamp := time.Now().Format("2006/01/02 15:04:05")
	message := fmt.Sprintf(format, args...)
	return fmt.Sprintf("%s [%s] %s", timestamp, levelNames[level], message)
}

func logToFile(level Level, format string, args ...interface{}) {
	if defaultLogger == nil {
		return
	}
	if level < defaultLogger.level {
		return
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	defaultLogger.fileLogger.Println(formatMessage(level, format, args...))
}

func logToConsole(format string, args ...interface{}) {
	if defaultLogger == nil {
		fmt.Printf(format+"\n", args...)
		return
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()
	timestamp := time.Now().Format("2006/01/02 15:04:05")
	defaultLogger.consoleLog.Printf("%s [rkv] %s", timestamp, fmt.Sprintf(format, args...))
}

func logToBoth(level Level, format string, args ...interface{}) {
	logToFile(level, format, args...)
	logToConsole(format, args...)
}

// Debug logs a debug message to the file sink only.
func Debug(format string, args ...interface{}) { logToFile(DEBUG, format, args...) }

// Info logs an info message to the file sink only.
func Info(format string, args ...interface{}) { logToFile(INFO, format, args...) }

// Warn logs a warning to both sinks.
func Warn(format string, args ...interface{}) { logToBoth(WARN, format, args...) }

// Error logs an error to both sinks.
func Error(format string, args ...interface{}) { logToBoth(ERROR, format, args...) }

// Console prints a status line to the console, mirrored into the file at
// INFO level for later audit.
func Console(format string, args ...interface{}) {
	logToConsole(format, args...)
	logToFile(INFO, format, args...)
}

// Printf mimics log.Printf, writing to both sinks at INFO level.
func Printf(format string, args ...interface{}) { logToBoth(INFO, format, args...) }

// Println mimics log.Println, writing to both sinks at INFO level.
func Println(args ...interface{}) {
	logToBoth(INFO, "%s", fmt.Sprint(args...))
}

// Writer returns an io.Writer compatible with the standard log package.
func Writer() io.Writer {
	if defaultLogger != nil {
		return defaultLogger.logFile
	}
	return os.Stdout
}

// NodeWarn logs a warning scoped to a cluster node address, so multi-node
// log output stays attributable to the connection that produced it.
func NodeWarn(addr, format string, args ...interface{}) {
	Warn("[node %s] "+format, append([]interface{}{addr}, args...)...)
}

// NodeError logs an error scoped to a cluster node address.
func NodeError(addr, format string, args ...interface{}) {
	Error("[node %s] "+format, append([]interface{}{addr}, args...)...)
}

// SlotEvent logs a message scoped to a hash slot, for routing-table
// changes that are easier to audit keyed by slot than by node.
func SlotEvent(level Level, slot int64, format string, args ...interface{}) {
	logToBoth(level, "[slot %d] "+format, append([]interface{}{slot}, args...)...)
}
