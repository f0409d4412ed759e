package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

const (
	defaultLogFile   = "./logs/gnf.log"
	defaultMaxSizeMB = 100
	defaultMaxAge    = 14
)

var (
	mu     sync.RWMutex
	logger = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	debug  = os.Getenv("GNF_DEBUG") != ""
)

// InitWithOutput redirects all categories to w.
func InitWithOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds)
}

// InitFileLogger switches to a rotating file configured by LOGFILE, LOGFILE_MAX_SIZE_MB
// and LOGFILE_MAX_AGE_DAYS.
func InitFileLogger() error {
	maxSize, err := envInt("LOGFILE_MAX_SIZE_MB", defaultMaxSizeMB)
	if err != nil {
		return err
	}
	maxAge, err := envInt("LOGFILE_MAX_AGE_DAYS", defaultMaxAge)
	if err != nil {
		return err
	}
	InitWithOutput(&lumberjack.Logger{
		Filename: logFilename(),
		MaxSize:  maxSize, // megabytes
		MaxAge:   maxAge,  // days
	})
	return nil
}

// SetDebug toggles Debug output.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = enabled
}

func logFilename() string {
	if logFile := os.Getenv("LOGFILE"); logFile != "" {
		return "./logs/" + logFile
	}
	return defaultLogFile
}

func envInt(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", name, err)
	}
	return n, nil
}

func output(color, level, category string, content []interface{}) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	message := fmt.Sprint(content...)
	l.Printf("%s[%s][%s]%s: %s", color, level, category, ColorReset, message)
}

func Info(category string, content ...interface{}) {
	output(ColorGreen, "INFO", category, content)
}

func Error(category string, content ...interface{}) {
	output(ColorRed, "ERROR", category, content)
}

func Warn(category string, content ...interface{}) {
	output(ColorYellow, "WARN", category, content)
}

func Debug(category string, content ...interface{}) {
	mu.RLock()
	enabled := debug
	mu.RUnlock()
	if enabled {
		output(ColorBlue, "DEBUG", category, content)
	}
}

// Errorf logs an error message and returns a formatted error
func Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	Error("ERROR", err.Error())
	return err
}
