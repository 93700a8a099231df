package builder

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/toltec-dev/toltecmk/internal/bash"
)

// buildLogger prefixes messages with the current build target
type buildLogger struct {
	entry  *logrus.Entry
	prefix string
}

func newLogger(recipe string) *buildLogger {
	return &buildLogger{
		entry:  logrus.WithField("recipe", recipe),
		prefix: recipe,
	}
}

// forPackage narrows the logger to a package of the recipe
func (l *buildLogger) forPackage(pkg string) *buildLogger {
	recipe, _ := l.entry.Data["recipe"].(string)
	return &buildLogger{
		entry:  l.entry.WithField("package", pkg),
		prefix: fmt.Sprintf("%s (%s)", pkg, recipe),
	}
}

func (l *buildLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof("%s: %s", l.prefix, fmt.Sprintf(format, args...))
}

func (l *buildLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf("%s: %s", l.prefix, fmt.Sprintf(format, args...))
}

// lines forwards script output at debug level
func (l *buildLogger) lines() bash.LineFunc {
	return func(line string) {
		l.Debugf("%s", line)
	}
}
