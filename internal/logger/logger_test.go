package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Log.SetOutput(&buf)
	t.Cleanup(func() { Log.SetOutput(newDefault().Out) })

	Init("warn", false)
	Component("poller").Info("hidden")
	Component("poller").Warn("tick failed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "poller", line["component"])
	assert.Equal(t, "tick failed", line["msg"])
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	Init("loud", true)
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
	_, isText := Log.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}
