package utils

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type calls struct {
	mu   sync.Mutex
	vals []int
}

func (c *calls) record(v int) {
	c.mu.Lock()
	c.vals = append(c.vals, v)
	c.mu.Unlock()
}

func (c *calls) get() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.vals...)
}

func TestDebouncerFiresOnceWithLatestValue(t *testing.T) {
	var got calls
	d := NewDebouncer(40*time.Millisecond, got.record)

	for i := 1; i <= 5; i++ {
		d.Trigger(i)
	}
	assert.True(t, d.Pending())

	require.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []int{5}, got.get())
	assert.False(t, d.Pending())
}

func TestDebouncerRestartsOnTrigger(t *testing.T) {
	var got calls
	d := NewDebouncer(60*time.Millisecond, got.record)

	start := time.Now()
	d.Trigger(1)
	time.Sleep(40 * time.Millisecond)
	d.Trigger(2)

	require.Eventually(t, func() bool { return len(got.get()) == 1 }, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, []int{2}, got.get())
}

func TestDebouncerFlush(t *testing.T) {
	var got calls
	d := NewDebouncer(time.Hour, got.record)

	d.Flush()
	assert.Empty(t, got.get())

	d.Trigger(7)
	d.Flush()
	assert.Equal(t, []int{7}, got.get())

	d.Flush()
	assert.Equal(t, []int{7}, got.get())
}

func TestDebouncerStop(t *testing.T) {
	var got calls
	d := NewDebouncer(20*time.Millisecond, got.record)

	d.Trigger(1)
	d.Stop()
	d.Trigger(2)
	d.Flush()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, got.get())
	assert.False(t, d.Pending())
}
