package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainsName(t *testing.T) {
	require.True(t, ContainsName("ROSSI  MARIO", "rossi m"))
	require.True(t, ContainsName("De Luca Anna", "LUCA"))
	require.False(t, ContainsName("ROSSI MARIO", "bianchi"))
	require.False(t, ContainsName("ROSSI MARIO", "   "))
}

func TestMostSimilar(t *testing.T) {
	candidates := []string{"ROSSI MARIO", "ROSSINI MARIA", "BIANCHI ANNA", "VERDI LUCA"}

	similar := MostSimilar("rosi mario", candidates, 0.85, 0)
	require.NotEmpty(t, similar)
	require.Equal(t, "ROSSI MARIO", similar[0].Value)
	for i := 1; i < len(similar); i++ {
		require.GreaterOrEqual(t, similar[i-1].Similarity, similar[i].Similarity)
	}
	for _, s := range similar {
		require.NotEqual(t, "BIANCHI ANNA", s.Value)
	}

	require.Len(t, MostSimilar("rossi", candidates, 0, 1), 1)
	require.Empty(t, MostSimilar("zzzz", candidates, 0.85, 0))
}
