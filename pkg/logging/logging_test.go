package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupReturnsUsableLogger(t *testing.T) {
	for _, debug := range []bool{false, true} {
		logger, err := Setup(debug, "AIExport", "test")
		require.NoError(t, err)
		require.NotNil(t, logger)
		assert.NotPanics(t, func() { logger.Info("setup check") })
	}
}
