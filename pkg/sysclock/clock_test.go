package sysclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_NowMSIncreasesMonotonically(t *testing.T) {
	c := New()
	first := c.NowMS()
	time.Sleep(5 * time.Millisecond)
	second := c.NowMS()
	assert.True(t, second >= first)
}

func TestClock_StartsNearZero(t *testing.T) {
	c := New()
	assert.Less(t, c.NowMS(), uint32(50))
}
