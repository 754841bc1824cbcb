// Package log sends the process's logrus output to rotated per-module files.
package log

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"

	"github.com/metalledger/metal/config"
	"github.com/metalledger/metal/errors"
)

const (
	rotationTime  = 24 * time.Hour
	defaultMaxAge = 7 * 24 * time.Hour
	generalModule = "general"
	linkSuffix    = "_current"
)

var defaultFormatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}

// InitLogFile installs a FileHook on the standard logger for the configured
// log directory and silences console output. The caller closes the hook on
// exit.
func InitLogFile(config *config.Config) (*FileHook, error) {
	logPath := config.LogDir()
	if err := clearLockFiles(logPath); err != nil {
		return nil, errors.Wrap(err, "clearing log lock files")
	}

	hook := NewFileHook(logPath, config.LogRetention())
	logrus.AddHook(hook)
	logrus.SetOutput(ioutil.Discard)
	return hook, nil
}

// SetLogLevel parses level, falling back to info for unknown names.
func SetLogLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// FileHook writes each entry to <dir>/<module>.<date>, where module comes
// from the entry's "module" field. <dir>/<module>_current links to the file
// currently written. Writers stay open until Close.
type FileHook struct {
	dir    string
	maxAge time.Duration

	mu      sync.Mutex
	writers map[string]*rotatelogs.RotateLogs
}

// NewFileHook returns a hook writing under dir. Rotated files older than
// maxAge are removed; a non-positive maxAge selects seven days.
func NewFileHook(dir string, maxAge time.Duration) *FileHook {
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return &FileHook{
		dir:     dir,
		maxAge:  maxAge,
		writers: make(map[string]*rotatelogs.RotateLogs),
	}
}

// Fire satisfies logrus.Hook.
func (h *FileHook) Fire(entry *logrus.Entry) error {
	msg, err := defaultFormatter.Format(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.writer(moduleOf(entry))
	if err != nil {
		return err
	}
	_, err = w.Write(msg)
	return err
}

// Levels satisfies logrus.Hook.
func (h *FileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Close closes every open file. Entries fired afterwards reopen them.
func (h *FileHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var firstErr error
	for module, w := range h.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "closing %s log", module)
		}
		delete(h.writers, module)
	}
	return firstErr
}

// writer must be called with h.mu held.
func (h *FileHook) writer(module string) (*rotatelogs.RotateLogs, error) {
	if w, ok := h.writers[module]; ok {
		return w, nil
	}

	base := filepath.Join(h.dir, module)
	w, err := rotatelogs.New(
		base+".%Y%m%d",
		rotatelogs.WithLinkName(base+linkSuffix),
		rotatelogs.WithMaxAge(h.maxAge),
		rotatelogs.WithRotationTime(rotationTime),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s log", module)
	}
	h.writers[module] = w
	return w, nil
}

func moduleOf(entry *logrus.Entry) string {
	module, ok := entry.Data["module"].(string)
	if !ok || module == "" || strings.ContainsAny(module, `/\`) {
		return generalModule
	}
	return module
}

// clearLockFiles removes the _lock files a crashed process leaves behind.
func clearLockFiles(logPath string) error {
	files, err := ioutil.ReadDir(logPath)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	for _, file := range files {
		if strings.HasSuffix(file.Name(), "_lock") {
			if err := os.Remove(filepath.Join(logPath, file.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
