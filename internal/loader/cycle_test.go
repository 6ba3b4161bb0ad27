package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInheritanceCycles(t *testing.T) {
	tests := []struct {
		name  string
		bases map[string]string
		want  [][]string
	}{
		{"none", map[string]string{"B": "A", "C": "B"}, nil},
		{"self", map[string]string{"A": "A"}, [][]string{{"A"}}},
		{"pair", map[string]string{"A": "B", "B": "A", "C": "A"}, [][]string{{"A", "B"}}},
		{"two", map[string]string{"A": "B", "B": "A", "X": "Y", "Y": "Z", "Z": "X"}, [][]string{{"A", "B"}, {"X", "Y", "Z"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inheritanceCycles(tt.bases))
		})
	}
}

func TestCyclePath(t *testing.T) {
	bases := map[string]string{"X": "Z", "Z": "Y", "Y": "X"}
	assert.Equal(t, "X -> Z -> Y -> X", cyclePath([]string{"X", "Y", "Z"}, bases))
	assert.Equal(t, "A -> A", cyclePath([]string{"A"}, map[string]string{"A": "A"}))
}
