package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextExecutionTimezonePrefixes(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, expr := range []string{"TZ=UTC", "TZ=", "CRON_TZ=", "CRON_TZ=UTC  ", "TZ=Nowhere/Land 0 0 * * *"} {
		assert.NotPanics(t, func() {
			assert.Equal(t, "", NextExecution(expr, now), expr)
		}, expr)
	}

	assert.Equal(t, "2024-01-02T00:00:00", NextExecution("CRON_TZ=UTC 0 0 * * *", now))
}
