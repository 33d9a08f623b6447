package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTL_GetSet(t *testing.T) {
	c := New[string](time.Minute)

	_, ok := c.Get("t1")
	assert.False(t, ok)

	c.Set("t1", "hello")
	v, ok := c.Get("t1")
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestTTL_Expiry(t *testing.T) {
	c := New[int](time.Minute)

	clock := time.Now()
	c.now = func() time.Time { return clock }

	c.Set("t1", 42)

	clock = clock.Add(59 * time.Second)
	v, ok := c.Get("t1")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	clock = clock.Add(2 * time.Second)
	_, ok = c.Get("t1")
	assert.False(t, ok)

	// expired entries remain reachable as stale values
	v, ok = c.GetStale("t1")
	assert.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestTTL_NegativeCaching(t *testing.T) {
	c := New[*string](time.Minute)

	c.Set("missing", nil)
	v, ok := c.Get("missing")
	assert.True(t, ok, "a cached nil must count as a hit")
	assert.Nil(t, v)
}

func TestTTL_Flush(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("a", "1")
	c.Flush()

	_, ok := c.GetStale("a")
	assert.False(t, ok)
}
