package icron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTriggerInfo(t *testing.T) {
	ref := time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)

	info, err := GetTriggerInfo("0 3 * * *", ref)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 11, 3, 0, 0, 0, time.UTC), info.Next)
	assert.Equal(t, time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC), info.Last)
	assert.Equal(t, ref.Sub(info.Last), info.TimeSinceLast)
	assert.Equal(t, info.Next.Sub(ref), info.TimeUntilNext)
}

func TestGetTriggerInfoInvalidExpression(t *testing.T) {
	_, err := GetTriggerInfo("not a cron", time.Now())
	assert.Error(t, err)
}
