package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "text", &buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = New("", "text", &buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNew_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("loud", "text", &buf)

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "Invalid log level 'loud'")
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf)
	log.WithField("environment", "staging").Info("environment")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "staging", entry["environment"])
	assert.Equal(t, "environment", entry["msg"])
}

func TestStep(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "text", &buf)

	entry := Step(log, "withAuth", logrus.Fields{"test": "TestCrear"})
	entry.Info("done")

	out := buf.String()
	assert.Contains(t, out, "step=withAuth")
	assert.Contains(t, out, "test=TestCrear")
	assert.Contains(t, out, "msg=done")
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.NotPanics(t, func() { log.Info("ignored") })
}
