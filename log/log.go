// Package log provides loggers for cadence components.
package log

import (
	"io/ioutil"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("CADENCE_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Silent returns a logger which discards everything. It's used by
// components when no logger is provided.
func Silent() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(ioutil.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Component returns an entry with component fields set.
func Component(l logrus.FieldLogger, component, uid string) *logrus.Entry {
	if l == nil {
		l = Silent()
	}
	return l.WithFields(logrus.Fields{
		"component": component,
		"uid":       uid,
	})
}
