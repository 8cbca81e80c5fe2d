package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/serialcache"
)

var _ serialcache.Logger = Logger{}

// Logger adapts a logrus entry. An "err" field holding an error is attached
// with WithError so hooks and formatters see it under logrus.ErrorKey.
type Logger struct{ E *logrus.Entry }

// New wraps l, tagging every record with component=serialcache.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "serialcache")}
}

func (l Logger) Debug(msg string, f serialcache.Fields) {
	if l.E.Logger.IsLevelEnabled(logrus.DebugLevel) {
		l.with(f).Debug(msg)
	}
}
func (l Logger) Info(msg string, f serialcache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f serialcache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f serialcache.Fields) { l.with(f).Error(msg) }

func (l Logger) with(f serialcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	lf := make(logrus.Fields, len(f))
	var err error
	for k, v := range f {
		if e, ok := v.(error); ok && k == "err" {
			err = e
			continue
		}
		lf[k] = v
	}
	e := l.E.WithFields(lf)
	if err != nil {
		e = e.WithError(err)
	}
	return e
}
