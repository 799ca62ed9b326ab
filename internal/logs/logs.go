package logs

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Level  string
	Format string // text | json
	File   string // optional, appended to in addition to stderr
}

// Logger is usable before Init; it starts at info level with text output.
var Logger = logrus.New()

func Init(o Options) {
	l := logrus.New()

	switch strings.ToLower(o.Level) {
	case "trace":
		l.SetLevel(logrus.TraceLevel)
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	if strings.EqualFold(o.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var out io.Writer = os.Stderr
	if o.File != "" {
		f, err := os.OpenFile(o.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			l.Warnf("log file %s: %v (stderr only)", o.File, err)
		} else {
			out = io.MultiWriter(os.Stderr, f)
		}
	}
	l.SetOutput(out)

	Logger = l
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}
