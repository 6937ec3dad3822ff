// planner-go/pkg/logger/logger.go
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

// FileSink describes the optional rotating log file.
type FileSink struct {
	Dir        string
	Name       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = zerolog.New(consoleWriter()).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Caller().
		Logger()
	log.Logger = Log
}

func consoleWriter() zerolog.ConsoleWriter {
	isTerminal := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    !isTerminal,
	}
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
	log.Logger = Log
}

// EnableFileSink tees every log line into a rotating file next to the console output.
func EnableFileSink(sink FileSink) error {
	if sink.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(sink.Dir, 0o755); err != nil {
		return err
	}
	name := sink.Name
	if name == "" {
		name = "planner.log"
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(sink.Dir, name),
		MaxSize:    orDefault(sink.MaxSizeMB, 16), // megabytes
		MaxBackups: orDefault(sink.MaxBackups, 8),
		MaxAge:     orDefault(sink.MaxAgeDays, 30), // days
		Compress:   true,
	}

	multi := zerolog.MultiLevelWriter(io.Writer(consoleWriter()), fileWriter)
	Log = zerolog.New(multi).
		Level(Log.GetLevel()).
		With().
		Timestamp().
		Caller().
		Logger()
	log.Logger = Log
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
