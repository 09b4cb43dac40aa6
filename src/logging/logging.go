package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger. level accepts the logrus level
// names (debug, info, warn, error); format is "json" or "text".
func Setup(level, format string) {
	SetupWithOutput(os.Stdout, level, format)
}

func SetupWithOutput(out io.Writer, level, format string) {
	logrus.SetOutput(out)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
		if level != "" {
			logrus.Warnf("unknown LOG_LEVEL %q, using info", level)
		}
	}
	logrus.SetLevel(lvl)
}
