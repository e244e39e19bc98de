package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	base := 2 * time.Second

	assert.Equal(t, 2*time.Second, backoffDelay(base, 1))
	assert.Equal(t, 4*time.Second, backoffDelay(base, 2))
	assert.Equal(t, 8*time.Second, backoffDelay(base, 3))

	// Growth is capped so a long-failing job never sleeps unbounded.
	assert.Equal(t, 5*time.Minute, backoffDelay(base, 20))
}
