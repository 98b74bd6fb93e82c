package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/hash"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"TÜRK CEZA KANUNU", []string{"türk", "ceza", "kanunu"}},
		{"İKLİM KANUNU", []string{"iklim", "kanunu"}},
		{"IRMAK", []string{"ırmak"}},
		{"MADDE 5 - (1) Ceza;", []string{"madde", "5", "1", "ceza"}},
		{"  ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestSparseVector(t *testing.T) {
	indices, values := SparseVector("Ceza ceza KANUNU")
	require.Len(t, indices, 2)
	require.Len(t, values, 2)
	assert.Less(t, indices[0], indices[1])

	weights := map[uint32]float32{indices[0]: values[0], indices[1]: values[1]}
	assert.Equal(t, float32(2), weights[hash.Term("ceza")])
	assert.Equal(t, float32(1), weights[hash.Term("kanunu")])

	indices, values = SparseVector("")
	assert.Empty(t, indices)
	assert.Empty(t, values)
}
