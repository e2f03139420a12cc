package observability

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// InitLogging configures the global logrus logger. Unknown levels fall
// back to info.
func InitLogging(level string, out io.Writer) {
	logLevel, err := log.ParseLevel(level)
	if err != nil {
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)

	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)

	log.SetFormatter(&prefixed.TextFormatter{
		ForceFormatting: true,
		FullTimestamp:   true,
	})
}

// Logger returns an entry tagged with a component prefix
func Logger(component string) *log.Entry {
	return log.WithField("prefix", component)
}

// DiscardLogger returns an entry that writes nowhere, for tests
func DiscardLogger() *log.Entry {
	l := log.New()
	l.SetOutput(io.Discard)
	return log.NewEntry(l)
}
