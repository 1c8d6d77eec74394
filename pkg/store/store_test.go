package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestMapRollback(t *testing.T) {
	j := NewJournal()
	m := NewMap[string, int](j)
	m.Insert("a", 1)
	m.Insert("b", 2)

	t.Run("Failed call restores every write", func(t *testing.T) {
		err := j.Atomic(func() error {
			m.Insert("a", 10)
			m.Remove("b")
			m.Insert("c", 3)
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)

		a, _ := m.Get("a")
		b, ok := m.Get("b")
		assert.Equal(t, 1, a)
		assert.True(t, ok)
		assert.Equal(t, 2, b)
		assert.False(t, m.Contains("c"))
		assert.Equal(t, 2, m.Len())
	})

	t.Run("Successful call keeps writes", func(t *testing.T) {
		err := j.Atomic(func() error {
			m.Insert("a", 11)
			m.Take("b")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 11, m.GetOrZero("a"))
		assert.False(t, m.Contains("b"))
		assert.False(t, j.InTx())
	})

	t.Run("Inner failure only reverts inner writes", func(t *testing.T) {
		err := j.Atomic(func() error {
			m.Insert("x", 1)
			inner := j.Atomic(func() error {
				m.Insert("y", 2)
				return errBoom
			})
			assert.ErrorIs(t, inner, errBoom)
			return nil
		})
		require.NoError(t, err)
		assert.True(t, m.Contains("x"))
		assert.False(t, m.Contains("y"))
	})

	t.Run("RemoveIf is undone as a whole", func(t *testing.T) {
		before := m.Len()
		err := j.Atomic(func() error {
			removed := m.RemoveIf(func(string, int) bool { return true })
			assert.Equal(t, before, removed)
			return errBoom
		})
		require.Error(t, err)
		assert.Equal(t, before, m.Len())
	})
}

func TestValueRollback(t *testing.T) {
	j := NewJournal()
	v := NewValue(j, uint64(5))

	err := j.Atomic(func() error {
		v.Set(7)
		v.Set(9)
		return errBoom
	})
	require.Error(t, err)
	assert.Equal(t, uint64(5), v.Get())

	v.Set(6)
	assert.Equal(t, uint64(6), v.Get())
}

func TestAtomicPanicRollsBack(t *testing.T) {
	j := NewJournal()
	m := NewMap[int, string](j)

	assert.Panics(t, func() {
		_ = j.Atomic(func() error {
			m.Insert(1, "one")
			panic("bad")
		})
	})
	assert.False(t, m.Contains(1))
	assert.False(t, j.InTx())
}
