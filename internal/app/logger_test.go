package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/releasetrack/pkg/logger"
)

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() { logger.Replace(nil) })

	require.NoError(t, ConfigureLogging(LoggingConfig{Level: "debug", Format: "console"}))
	require.True(t, logger.Logger().Core().Enabled(zap.DebugLevel))

	require.NoError(t, ConfigureLogging(LoggingConfig{}))
	require.False(t, logger.Logger().Core().Enabled(zap.DebugLevel))
}
