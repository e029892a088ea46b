package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Log is the global logger.
	Log zerolog.Logger
	// ShowSensitiveData controls whether credentials are logged in full.
	ShowSensitiveData bool = false
	// MaxTokenLength caps how much of a token ends up in logs.
	MaxTokenLength int = 30
)

// Init configures the global logger.
func Init(level string, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout

	if pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
			FormatLevel: func(i interface{}) string {
				switch i {
				case "debug":
					return "\033[1;35m DEBUG \033[0m"
				case "info":
					return "\033[1;32m INFO  \033[0m"
				case "warn":
					return "\033[1;33m WARN  \033[0m"
				case "error":
					return "\033[1;31m ERROR \033[0m"
				case "fatal":
					return "\033[1;37;41m FATAL \033[0m"
				default:
					return "\033[1m " + strings.ToUpper(fmt.Sprintf("%-6s", i)) + " \033[0m"
				}
			},
			FormatMessage: func(i interface{}) string {
				if i == nil || i.(string) == "" {
					return ""
				}
				return fmt.Sprintf("\033[1m%s\033[0m", i)
			},
			FormatFieldName: func(i interface{}) string {
				return fmt.Sprintf("\033[36m%s\033[0m=", i)
			},
			FormatFieldValue: func(i interface{}) string {
				return fmt.Sprintf("\033[32m%s\033[0m", i)
			},
		}
	}

	logLevel := zerolog.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	case "fatal":
		logLevel = zerolog.FatalLevel
	}

	Log = zerolog.New(output).
		Level(logLevel).
		With().
		Timestamp().
		Caller().
		Logger()
}

// TruncateToken shortens a secret so it can be logged without leaking it.
// SESSDATA, refresh tokens and qrcode keys all go through here.
func TruncateToken(data string) string {
	if len(data) <= MaxTokenLength || ShowSensitiveData {
		return data
	}
	return data[:MaxTokenLength/2] + "..." + data[len(data)-MaxTokenLength/2:]
}

// SetShowSensitiveData toggles full credential output.
func SetShowSensitiveData(show bool) {
	ShowSensitiveData = show
}

// SetMaxTokenLength adjusts the truncation limit.
func SetMaxTokenLength(length int) {
	if length > 0 {
		MaxTokenLength = length
	}
}
