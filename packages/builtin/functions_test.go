package builtin

import (
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
}

func TestRegistry_Call(t *testing.T) {
	r := NewRegistry()
	r.SetClock(fixedClock)

	t.Run("uuid", func(t *testing.T) {
		v, ok := r.Call("uuid()")
		require.True(t, ok)
		_, err := uuid.Parse(v.(string))
		assert.NoError(t, err)
	})

	t.Run("now", func(t *testing.T) {
		v, ok := r.Call("now()")
		require.True(t, ok)
		assert.Equal(t, "2026-03-15T10:30:00Z", v)
	})

	t.Run("timestamp", func(t *testing.T) {
		v, ok := r.Call("timestamp()")
		require.True(t, ok)
		assert.Equal(t, fixedClock().Unix(), v)
	})

	t.Run("date default format", func(t *testing.T) {
		v, ok := r.Call("date()")
		require.True(t, ok)
		assert.Equal(t, "2026-03-15", v)
	})

	t.Run("date with offset", func(t *testing.T) {
		v, ok := r.Call(`date("2006-01-02", 30)`)
		require.True(t, ok)
		assert.Equal(t, "2026-04-14", v)
	})

	t.Run("unknown function", func(t *testing.T) {
		_, ok := r.Call("nope()")
		assert.False(t, ok)
	})

	t.Run("not a call", func(t *testing.T) {
		_, ok := r.Call("uuid")
		assert.False(t, ok)
	})
}

func TestRandomFunctions(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 50; i++ {
		v, _ := r.Call("random(5, 7)")
		n := v.(int)
		assert.GreaterOrEqual(t, n, 5)
		assert.LessOrEqual(t, n, 7)

		d, _ := r.Call("dayOfMonth()")
		assert.GreaterOrEqual(t, d.(int), 1)
		assert.LessOrEqual(t, d.(int), 28)

		a, _ := r.Call("amount(10, 20)")
		assert.Regexp(t, regexp.MustCompile(`^\d+\.\d{2}$`), a)
		f, err := strconv.ParseFloat(a.(string), 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, f, 10.0)
		assert.LessOrEqual(t, f, 20.0)
	}

	s, _ := r.Call("randomString(12)")
	assert.Len(t, s, 12)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("currency", func(args []string) any { return "ARS" })

	assert.True(t, r.Has("currency"))
	v, ok := r.Call("currency()")
	require.True(t, ok)
	assert.Equal(t, "ARS", v)
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b, c", "d"}, parseArgs(`a, "b, c", 'd'`))
	assert.Nil(t, parseArgs(""))
}
