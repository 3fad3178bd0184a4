package rate_limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.IsAllowed("10.0.0.1"))
	assert.True(t, rl.IsAllowed("10.0.0.1"))
	assert.False(t, rl.IsAllowed("10.0.0.1"))
	assert.True(t, rl.IsAllowed("10.0.0.2"))
	assert.Equal(t, 0, rl.GetRemainingRequests("10.0.0.1"))

	now = now.Add(61 * time.Second)
	assert.Equal(t, 2, rl.GetRemainingRequests("10.0.0.1"))
	assert.True(t, rl.IsAllowed("10.0.0.1"))
}

func TestPruneDropsIdleClients(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, time.Minute)
	rl.now = func() time.Time { return now }

	rl.IsAllowed("10.0.0.1")
	now = now.Add(2 * time.Minute)
	rl.IsAllowed("10.0.0.2")
	rl.Prune()

	assert.NotContains(t, rl.requests, "10.0.0.1")
	assert.Contains(t, rl.requests, "10.0.0.2")
}
