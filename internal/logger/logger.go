package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Level represents the logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger handles dual-output logging (console + file)
type Logger struct {
	consoleLogger *log.Logger
	fileLogger    *log.Logger
	logFile       *os.File
	verbose       bool
	minLevel      Level
}

var (
	globalLogger *Logger
	mu           sync.Mutex
)

// Init initializes the global logger
// consoleOutput: where to write INFO logs (typically os.Stderr for the CLI)
// logFilePath: path to the log file; empty disables the file sink
// verbose: if true, show DEBUG logs on console as well
func Init(consoleOutput io.Writer, logFilePath string, verbose bool) error {
	var (
		logFile    *os.File
		fileLogger = log.New(io.Discard, "", 0)
	)

	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		fileLogger = log.New(logFile, "", log.LstdFlags)
	}

	minLevel := LevelInfo
	if verbose {
		minLevel = LevelDebug
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger != nil && globalLogger.logFile != nil {
		globalLogger.logFile.Close()
	}
	globalLogger = &Logger{
		consoleLogger: log.New(consoleOutput, "", 0), // No prefix for clean console output
		fileLogger:    fileLogger,
		logFile:       logFile,
		verbose:       verbose,
		minLevel:      minLevel,
	}

	return nil
}

// Close closes the log file and detaches the global logger
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger != nil && globalLogger.logFile != nil {
		globalLogger.logFile.Close()
	}
	globalLogger = nil
}

func current() *Logger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger
}

// Debug logs a debug message (file only, unless verbose)
func Debug(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.log(LevelDebug, format, args...)
	}
}

// Info logs an info message (console + file)
func Info(format string, args ...interface{}) {
	l := current()
	if l == nil {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
		return
	}
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message (console + file)
func Warn(format string, args ...interface{}) {
	l := current()
	if l == nil {
		fmt.Fprintf(os.Stderr, "WARN: "+format+"\n", args...)
		return
	}
	l.log(LevelWarn, format, args...)
}

// Error logs an error message (console + file)
func Error(format string, args ...interface{}) {
	l := current()
	if l == nil {
		fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
		return
	}
	l.log(LevelError, format, args...)
}

// log handles the actual logging logic
func (l *Logger) log(level Level, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	// Always log to file with timestamp and level (regardless of minLevel)
	l.fileLogger.Printf("[%s] %s", level.String(), message)

	if level < l.minLevel {
		return
	}

	switch level {
	case LevelDebug:
		l.consoleLogger.Printf("[DEBUG] %s", message)
	case LevelInfo:
		l.consoleLogger.Printf("%s", message)
	case LevelWarn:
		l.consoleLogger.Printf("⚠️  %s", message)
	case LevelError:
		l.consoleLogger.Printf("❌ %s", message)
	}
}

// LogSwallowed records a failure that is deliberately not returned to the
// caller (history persistence). Details go to the file, the console only
// gets a warning line.
func LogSwallowed(path string, err error, context string) {
	l := current()
	if l == nil {
		fmt.Fprintf(os.Stderr, "WARN: %s (%s): %v\n", context, path, err)
		return
	}

	l.fileLogger.Printf("[SWALLOWED] File: %s, Context: %s, Error: %v", path, context, err)
	if LevelWarn >= l.minLevel {
		l.consoleLogger.Printf("⚠️  %s failed, continuing", context)
	}
}

// GetLogFilePath returns the path to the current log file
func GetLogFilePath() string {
	if l := current(); l != nil && l.logFile != nil {
		return l.logFile.Name()
	}
	return ""
}

// IsVerbose returns whether verbose logging is enabled
func IsVerbose() bool {
	l := current()
	if l == nil {
		return false
	}
	return l.verbose
}
