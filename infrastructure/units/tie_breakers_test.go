package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTieBreak(t *testing.T) {
	tests := []struct {
		name      string
		strategy  TieBreak
		wantNil   bool
		wantError bool
	}{
		{
			name:     "error strategy yields nil func",
			strategy: TieError,
			wantNil:  true,
		},
		{
			name:     "first strategy",
			strategy: TieFirst,
		},
		{
			name:     "lexicographic strategy",
			strategy: TieLexicographic,
		},
		{
			name:      "unknown strategy",
			strategy:  TieBreak("random"),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := NewTieBreak(tt.strategy)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, fn)
			} else {
				assert.NotNil(t, fn)
			}
		})
	}
}

func TestBreakTieFirst(t *testing.T) {
	winner, err := breakTieFirst(1, []string{"Charlie", "Alice", "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "Charlie", winner)

	_, err = breakTieFirst(1, nil)
	assert.Error(t, err)
}

func TestBreakTieLexicographic(t *testing.T) {
	tests := []struct {
		name string
		tied []string
		want string
	}{
		{
			name: "plain ascii labels",
			tied: []string{"Charlie", "Alice", "Bob"},
			want: "Alice",
		},
		{
			name: "single candidate",
			tied: []string{"Zed"},
			want: "Zed",
		},
		{
			name: "accented labels collate with their base letters",
			tied: []string{"Émile", "Zoe"},
			want: "Émile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, err := breakTieLexicographic(1, tt.tied)
			require.NoError(t, err)
			assert.Equal(t, tt.want, winner)
		})
	}

	_, err := breakTieLexicographic(1, nil)
	assert.Error(t, err)
}
