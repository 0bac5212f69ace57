// Package logging wires the application logger: leveled logfmt output
// on stderr controlled by the EVENTSLEUTH_LOG environment variable,
// teed to a debug-level file under the app data directory.
//
// Nothing sensitive is logged: no message bodies, no SIDs, no tokens.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// EnvVar selects the stderr log level: debug, info, warn, or error.
const EnvVar = "EVENTSLEUTH_LOG"

// New builds the application logger. dataDir is the app data
// directory; the debug log goes to dataDir/logs/eventsleuth.log,
// rotating once it exceeds the size cap. The returned closer flushes
// and closes the file sink.
func New(dataDir string) (log.Logger, func() error, error) {
	stderrLogger := level.NewFilter(
		log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)),
		levelOption(os.Getenv(EnvVar)),
	)

	file, err := openLogFile(dataDir)
	if err != nil {
		// Degrade to stderr-only rather than refusing to start.
		lg := withDefaults(stderrLogger)
		level.Warn(lg).Log("msg", "file logging disabled", "err", err)
		return lg, func() error { return nil }, nil
	}

	fileLogger := log.NewLogfmtLogger(log.NewSyncWriter(file))
	combined := withDefaults(teeLogger{stderrLogger, fileLogger})
	return combined, file.Close, nil
}

func withDefaults(l log.Logger) log.Logger {
	return log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func levelOption(name string) level.Option {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	case "", "info":
		return level.AllowInfo()
	default:
		return level.AllowInfo()
	}
}

// teeLogger fans a log record out to every sink. The file sink always
// records debug; only the stderr sink is level-filtered.
type teeLogger []log.Logger

func (t teeLogger) Log(keyvals ...interface{}) error {
	var firstErr error
	for _, l := range t {
		if err := l.Log(keyvals...); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openLogFile opens the append-mode debug log, rotating the previous
// generation to .old once it exceeds the size cap.
func openLogFile(dataDir string) (*os.File, error) {
	dir := filepath.Join(dataDir, model.LogDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}

	path := filepath.Join(dir, model.LogFileName)
	if info, err := os.Stat(path); err == nil && info.Size() > model.MaxLogFileSize {
		// Best-effort rotation; a failure only means a bigger file.
		os.Rename(path, path+".old")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// Discard returns a logger that drops everything; used in tests.
func Discard() log.Logger {
	return log.NewNopLogger()
}
