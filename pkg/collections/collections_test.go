package collections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitset_SetTestClear(t *testing.T) {
	b := NewBitset(8)

	b.Set(3)
	b.Set(200)
	b.Set(-1)

	assert.True(t, b.Test(3))
	assert.True(t, b.Test(200))
	assert.False(t, b.Test(4))
	assert.False(t, b.Test(-1))
	assert.Equal(t, 2, b.Count())

	b.Clear(3)
	assert.False(t, b.Test(3))
	assert.Equal(t, []int{200}, b.ToSlice())
}

func TestBitset_TestAndSet(t *testing.T) {
	b := NewBitset(0)

	assert.False(t, b.TestAndSet(70))
	assert.True(t, b.TestAndSet(70))
}

func TestBitset_CloneIsIndependent(t *testing.T) {
	b := NewBitset(64)
	b.Set(1)

	c := b.Clone()
	c.Set(2)

	assert.Equal(t, []int{1}, b.ToSlice())
	assert.Equal(t, []int{1, 2}, c.ToSlice())
}

func TestBitset_And(t *testing.T) {
	a := NewBitset(64)
	for _, i := range []int{1, 5, 130} {
		a.Set(i)
	}
	b := NewBitset(64)
	b.Set(5)
	b.Set(9)

	a.And(b)

	assert.Equal(t, []int{5}, a.ToSlice())
}

func TestBitset_IterateStops(t *testing.T) {
	b := NewBitset(64)
	b.Set(1)
	b.Set(2)
	b.Set(3)

	var seen []int
	b.Iterate(func(i int) bool {
		seen = append(seen, i)
		return i < 2
	})

	assert.Equal(t, []int{1, 2}, seen)
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int](2)
	assert.True(t, q.IsEmpty())

	for i := 0; i < 200; i++ {
		q.Enqueue(i)
	}
	for i := 0; i < 150; i++ {
		v, ok := q.Dequeue()
		assert.True(t, ok)
		assert.Equal(t, i, v)
	}
	q.Enqueue(200)
	assert.Equal(t, 51, q.Len())

	for i := 150; i <= 200; i++ {
		v, _ := q.Dequeue()
		assert.Equal(t, i, v)
	}
	_, ok := q.Dequeue()
	assert.False(t, ok)
}
