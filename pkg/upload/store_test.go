package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorePutGetRelease(t *testing.T) {
	s := NewStore()
	ref := s.Put([]byte("jpeg-bytes"))
	assert.NotEmpty(t, ref)

	b, ok := s.Get(ref)
	assert.True(t, ok)
	assert.Equal(t, []byte("jpeg-bytes"), b)
	assert.Equal(t, 1, s.Len())

	s.Release(ref)
	_, ok = s.Get(ref)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	// double release must not panic
	s.Release(ref)
}

func TestStoreDistinctRefs(t *testing.T) {
	s := NewStore()
	a := s.Put([]byte("a"))
	b := s.Put([]byte("b"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, s.Len())
}
