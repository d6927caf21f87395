package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the process-wide JSON logger. DEBUG=TRUE lowers the level,
// SILENT=TRUE sends output to a rotating log file instead of stdout.
func New() *slog.Logger {
	opts := &slog.HandlerOptions{}
	var output io.Writer

	if os.Getenv("DEBUG") == "TRUE" {
		opts.Level = slog.LevelDebug
	}

	if os.Getenv("SILENT") == "TRUE" {
		logFilePath := os.Getenv("LOG_FILE_PATH")
		if logFilePath == "" {
			logFilePath = "/tmp/cinescan.log"
		}

		output = &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    500,
			MaxAge:     30,
			MaxBackups: 3,
			Compress:   true,
			LocalTime:  true,
		}
	} else {
		output = os.Stdout
	}

	return slog.New(slog.NewJSONHandler(output, opts))
}
