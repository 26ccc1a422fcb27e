package eventrouter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxBytes is the default maximum size of log file before rotation (10MB).
	DefaultMaxBytes = 10 * 1024 * 1024

	// DefaultMaxBackups is the default number of rotated files kept.
	DefaultMaxBackups = 5

	// DefaultLogLevel is used when LogConfig.Level is empty.
	DefaultLogLevel = "error"
)

// LogConfig holds configuration for router logging.
type LogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`     // Whether logging is enabled.
	FilePath   string `mapstructure:"file_path"`   // Path to the log file.
	MaxBytes   int64  `mapstructure:"max_bytes"`   // Rotation threshold, DefaultMaxBytes if <= 0.
	MaxBackups int    `mapstructure:"max_backups"` // Rotated files kept, DefaultMaxBackups if <= 0.
	Level      string `mapstructure:"level"`       // logrus level name, DefaultLogLevel if empty.
}

// newFileLogger builds a JSON logrus logger writing to a rotating file.
// The returned writer must be closed by the caller.
func newFileLogger(cfg *LogConfig) (*logrus.Logger, *RotatingFileWriter, error) {
	levelName := cfg.Level
	if levelName == "" {
		levelName = DefaultLogLevel
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}

	writer, err := NewRotatingFileWriter(cfg.FilePath, cfg.MaxBytes)
	if err != nil {
		return nil, nil, err
	}
	if cfg.MaxBackups > 0 {
		writer.maxBackups = cfg.MaxBackups
	}

	logger := logrus.New()
	logger.SetOutput(writer)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(level)
	return logger, writer, nil
}

// discardLogger is used when no logger is configured.
func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// RotatingFileWriter implements io.Writer with automatic file rotation
// when the file size exceeds a maximum threshold.
type RotatingFileWriter struct {
	filepath    string
	maxBytes    int64
	maxBackups  int
	currentFile *os.File
	currentSize int64
	closed      bool
	mu          sync.Mutex
}

// NewRotatingFileWriter creates a new rotating file writer.
func NewRotatingFileWriter(filepath string, maxBytes int64) (*RotatingFileWriter, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	rfw := &RotatingFileWriter{
		filepath:   filepath,
		maxBytes:   maxBytes,
		maxBackups: DefaultMaxBackups,
	}

	if err := rfw.openFile(); err != nil {
		return nil, err
	}

	return rfw, nil
}

// openFile opens or creates the log file.
func (rfw *RotatingFileWriter) openFile() error {
	file, err := os.OpenFile(rfw.filepath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	rfw.currentFile = file
	rfw.currentSize = info.Size()
	return nil
}

// Write writes data to the file, rotating if necessary. A file that could
// not be reopened after a rotation is opened again on the next Write.
func (rfw *RotatingFileWriter) Write(p []byte) (n int, err error) {
	rfw.mu.Lock()
	defer rfw.mu.Unlock()

	if rfw.closed {
		return 0, os.ErrClosed
	}
	if rfw.currentFile == nil {
		if err := rfw.openFile(); err != nil {
			return 0, err
		}
	}

	if rfw.currentSize+int64(len(p)) > rfw.maxBytes {
		if err := rfw.rotate(); err != nil {
			return 0, err
		}
	}

	n, err = rfw.currentFile.Write(p)
	rfw.currentSize += int64(n)
	return n, err
}

// rotate closes the current file, shifts the numbered backups and opens a
// fresh file. Backups beyond maxBackups are overwritten. If the current file
// cannot be moved aside it is reopened for appending and the error returned,
// so the next Write tries again.
func (rfw *RotatingFileWriter) rotate() error {
	err := rfw.currentFile.Close()
	rfw.currentFile = nil
	if err != nil {
		return fmt.Errorf("failed to close current log file: %w", err)
	}

	var errs []error
	for i := rfw.maxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", rfw.filepath, i)
		newPath := fmt.Sprintf("%s.%d", rfw.filepath, i+1)

		if _, err := os.Stat(oldPath); err == nil {
			os.Remove(newPath)
			if err := os.Rename(oldPath, newPath); err != nil {
				errs = append(errs, fmt.Errorf("failed to shift log backup: %w", err))
			}
		}
	}

	backupPath := rfw.filepath + ".1"
	if _, err := os.Stat(rfw.filepath); err == nil {
		os.Remove(backupPath)
		if err := os.Rename(rfw.filepath, backupPath); err != nil {
			errs = append(errs, fmt.Errorf("failed to rotate log file: %w", err))
		}
	}

	if err := rfw.openFile(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close closes the underlying file. Writes after Close fail with os.ErrClosed.
func (rfw *RotatingFileWriter) Close() error {
	rfw.mu.Lock()
	defer rfw.mu.Unlock()

	rfw.closed = true
	if rfw.currentFile != nil {
		err := rfw.currentFile.Close()
		rfw.currentFile = nil
		return err
	}
	return nil
}

var _ io.WriteCloser = (*RotatingFileWriter)(nil)
