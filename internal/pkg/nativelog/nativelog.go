package nativelog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvLogDir          = "KEYWARD_LOG_DIR"
	EnvLogRotateSizeMB = "KEYWARD_LOG_ROTATE_SIZE_MB"
	EnvLogRotateKeep   = "KEYWARD_LOG_ROTATE_KEEP"

	defaultRotateSizeMB = 64
	defaultRotateKeep   = 7
	defaultLogFilePerm  = 0o644
	defaultLogDirPerm   = 0o755
)

// ResolveDir resolves the log directory path.
func ResolveDir() string {
	if dir := strings.TrimSpace(os.Getenv(EnvLogDir)); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".keyward", "log")
	}
	return filepath.Join(".", "logs")
}

// currentFilename names the active log file.
const currentFilename = "keyward.log"

// Writer appends to a size-rotated log file.
type Writer struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
	keep     int
	written  int64
	file     *os.File
}

// NewWriter creates a rotating log writer in the resolved log directory.
func NewWriter() (*Writer, error) {
	dir := ResolveDir()
	if err := os.MkdirAll(dir, defaultLogDirPerm); err != nil {
		return nil, err
	}
	_ = os.Setenv(EnvLogDir, dir)

	w := &Writer{
		dir:      dir,
		maxBytes: int64(envIntOr(EnvLogRotateSizeMB, defaultRotateSizeMB)) << 20,
		keep:     envIntOr(EnvLogRotateKeep, defaultRotateKeep),
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var v int
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil || v <= 0 {
		return def
	}
	return v
}

func (w *Writer) open() error {
	path := filepath.Join(w.dir, currentFilename)
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultLogFilePerm)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	w.file = file
	w.written = info.Size()
	return nil
}

func (w *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

// rotate renames the active file with a timestamp suffix and prunes old files.
func (w *Writer) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	current := filepath.Join(w.dir, currentFilename)
	rotated := filepath.Join(w.dir, "keyward-"+time.Now().Format("20060102-150405")+".log")
	if err := os.Rename(current, rotated); err != nil {
		return err
	}
	w.prune()
	return w.open()
}

func (w *Writer) prune() {
	matches, err := filepath.Glob(filepath.Join(w.dir, "keyward-*.log"))
	if err != nil || len(matches) <= w.keep {
		return
	}
	sort.Strings(matches)
	for _, path := range matches[:len(matches)-w.keep] {
		_ = os.Remove(path)
	}
}

func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

// NewZapLogger creates a zap logger teeing to stdout and the rotating log file.
func NewZapLogger() (*zap.Logger, error) {
	writer, err := NewWriter()
	if err != nil {
		return nil, err
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")

	encoder := zapcore.NewConsoleEncoder(encoderConfig)
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(encoder, zapcore.AddSync(writer), level),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	_ = zap.RedirectStdLog(logger)
	return logger, nil
}
