package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, GetLevel(" WARN "))
	assert.Equal(t, logrus.ErrorLevel, GetLevel("error"))
	assert.Equal(t, logrus.InfoLevel, GetLevel("nonsense"))
	assert.Equal(t, logrus.InfoLevel, GetLevel(""))
}

func TestSetup_File(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)
	defer logrus.SetLevel(logrus.InfoLevel)

	base := filepath.Join(t.TempDir(), "fittrack")
	cleanup := Setup(SetupParams{LogFileName: base, LogLevel: "debug", LogFormatJSON: true})

	logrus.WithField("component", "test").Info("hello file")
	cleanup()

	content, err := os.ReadFile(base + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"hello file"`)
	assert.Contains(t, string(content), `"component":"test"`)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestSentryHook_Levels(t *testing.T) {
	hook := NewSentryHook(nil)
	assert.ElementsMatch(t, []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}, hook.Levels())

	hook = NewSentryHook([]logrus.Level{logrus.WarnLevel})
	assert.Equal(t, []logrus.Level{logrus.WarnLevel}, hook.Levels())

	// Without sentry.Init the hub has no client and capturing is a no-op.
	assert.NoError(t, hook.Fire(&logrus.Entry{Level: logrus.WarnLevel, Message: "x", Data: logrus.Fields{}}))
}
