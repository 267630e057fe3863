package system

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// dailyFile is a zapcore.WriteSyncer that switches to a new file when the date changes
type dailyFile struct {
	mu     sync.Mutex
	file   *os.File
	logDir string
	prefix string
	date   string
	now    func() time.Time
}

func newDailyFile(logDir, prefix string) (*dailyFile, error) {
	d := &dailyFile{logDir: logDir, prefix: prefix, now: time.Now}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return d, nil
}

// rotateIfNeeded must be called with mu held
func (d *dailyFile) rotateIfNeeded() error {
	today := d.now().Format("2006-01-02")
	if d.date == today && d.file != nil {
		return nil
	}

	if d.file != nil {
		d.file.Close()
	}

	logPath := filepath.Join(d.logDir, fmt.Sprintf("%s-%s.log", d.prefix, today))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	d.file = file
	d.date = today
	return nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return d.file.Write(p)
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

var (
	mu      sync.RWMutex
	sugar   *zap.SugaredLogger
	logFile *dailyFile
)

func init() {
	l, err := zap.NewDevelopment()
	if err != nil {
		l = zap.NewNop()
	}
	sugar = l.Sugar()
}

// InitLogger sends log output to stdout and a daily file under logDir
func InitLogger(logDir string) error {
	if logDir == "" {
		logDir = "./logs"
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := newDailyFile(logDir, "colormap")
	if err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	// stdout as well, for the systemd journal
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zapcore.InfoLevel),
		zapcore.NewCore(encoder, f, zapcore.InfoLevel),
	)

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	sugar = zap.New(core).Sugar()
	return nil
}

func logger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	logger().Infof(format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	logger().Warnf(format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	logger().Errorf(format, args...)
}

// Close flushes and closes the log file
func Close() {
	mu.Lock()
	defer mu.Unlock()
	_ = sugar.Sync()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
