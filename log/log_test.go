package log_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/dudk/cadence/log"
)

func TestComponentFields(t *testing.T) {
	var buf bytes.Buffer
	l := log.GetLogger()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	log.Component(l, "transport", "abc").Info("started")
	assert.Contains(t, buf.String(), "component=transport")
	assert.Contains(t, buf.String(), "uid=abc")
}

func TestSilent(t *testing.T) {
	entry := log.Component(nil, "clock", "x")
	assert.NotNil(t, entry)
	entry.Error("discarded")
}
