package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatch(t *testing.T) {
	tests := map[string]struct {
		elements  []string
		batchSize int
		expected  [][]string
	}{
		"empty": {
			elements:  []string{},
			batchSize: 2,
			expected:  nil,
		},
		"exact": {
			elements:  []string{"a", "b", "c", "d"},
			batchSize: 2,
			expected:  [][]string{{"a", "b"}, {"c", "d"}},
		},
		"remainder": {
			elements:  []string{"a", "b", "c"},
			batchSize: 2,
			expected:  [][]string{{"a", "b"}, {"c"}},
		},
		"batch larger than input": {
			elements:  []string{"a"},
			batchSize: 10,
			expected:  [][]string{{"a"}},
		},
		"invalid batch size": {
			elements:  []string{"a"},
			batchSize: 0,
			expected:  nil,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Batch(tc.elements, tc.batchSize))
		})
	}
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"guid-1", "guid-2"}, Unique([]string{"guid-1", "guid-2", "guid-1"}))
	assert.Equal(t, []string{}, Unique([]string{}))
}
