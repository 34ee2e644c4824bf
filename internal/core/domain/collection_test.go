package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectOptions_Normalised(t *testing.T) {
	opts := CollectOptions{}.Normalised()
	assert.Equal(t, DefaultMaxDepth, opts.MaxDepth)
	assert.Equal(t, DefaultCollectConcurrency, opts.Concurrency)

	opts = CollectOptions{MaxDepth: 3, Concurrency: 1, Dedupe: true}.Normalised()
	assert.Equal(t, 3, opts.MaxDepth)
	assert.Equal(t, 1, opts.Concurrency)
	assert.True(t, opts.Dedupe)
}

func TestDefaultCollectOptions(t *testing.T) {
	opts := DefaultCollectOptions()
	assert.Equal(t, 64, opts.MaxDepth)
	assert.False(t, opts.Dedupe)
	assert.False(t, opts.SkipFailedFolders)
}

func TestCollection_Len(t *testing.T) {
	var nilCollection *Collection
	assert.Equal(t, 0, nilCollection.Len())

	c := &Collection{Files: []FileDescriptor{{ID: "a"}, {ID: "b"}}}
	assert.Equal(t, 2, c.Len())
}
