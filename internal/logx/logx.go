package logx

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a text logger tagged with the service name. Unknown levels
// fall back to info.
func New(service, level string) *logrus.Entry {
	return NewWithOutput(os.Stderr, service, level)
}

func NewWithOutput(w io.Writer, service, level string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l.WithField("service", service)
}
