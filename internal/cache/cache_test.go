package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCachePutGet(t *testing.T) {
	c := NewTTLCache[string, int](4, 0)
	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestTTLCacheExpires(t *testing.T) {
	c := NewTTLCache[string, int](4, time.Millisecond)
	fixed := time.Now()
	c.now = func() time.Time { return fixed }
	c.Put("a", 1)
	c.now = func() time.Time { return fixed.Add(time.Hour) }
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestSetInvalidateDDLPurgesGlobalCaches(t *testing.T) {
	s := NewSet()
	s.Plans.Put(PlanKey("select 1"), Plan{SQL: "select 1"})
	s.Schemas.Put("users", TableSchema{})

	s.InvalidateDDL("users")

	assert.Equal(t, 0, s.Plans.Len())
	_, ok := s.Schemas.Get("users")
	assert.False(t, ok)
}

func TestIsVolatileQuery(t *testing.T) {
	assert.True(t, IsVolatileQuery("SELECT gen_random_uuid()"))
	assert.True(t, IsVolatileQuery("select NOW()"))
	assert.False(t, IsVolatileQuery("select id from users"))
}
