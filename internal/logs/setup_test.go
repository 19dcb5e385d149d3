package logs

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	SetupLogging("debug")
	require.Equal(t, log.DebugLevel, log.GetLevel())

	SetupLogging("loud")
	require.Equal(t, log.InfoLevel, log.GetLevel())
}
