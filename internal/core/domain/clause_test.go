package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClauseID(t *testing.T) {
	assert.Equal(t, "p1_c1", ClauseID(1, 1))
	assert.Equal(t, "p12_c30", ClauseID(12, 30))
}

func TestParseClauseID(t *testing.T) {
	page, seq, err := ParseClauseID("p3_c14")
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 14, seq)
}

func TestParseClauseID_Invalid(t *testing.T) {
	tests := []string{"", "p1", "p1-c2", "x1_c2", "p1_x2", "p0_c1", "p1_c0", "pa_c1", "p1_cb"}

	for _, id := range tests {
		t.Run(id, func(t *testing.T) {
			_, _, err := ParseClauseID(id)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestParseClauseID_RoundTrip(t *testing.T) {
	for page := 1; page <= 3; page++ {
		for seq := 1; seq <= 3; seq++ {
			p, s, err := ParseClauseID(ClauseID(page, seq))
			require.NoError(t, err)
			assert.Equal(t, page, p)
			assert.Equal(t, seq, s)
		}
	}
}

func TestClause_Label(t *testing.T) {
	assert.Equal(t, "P2-C5", Clause{ID: "p2_c5"}.Label())
	assert.Equal(t, "custom", Clause{ID: "custom"}.Label())
}

func TestClause_Excerpt(t *testing.T) {
	c := Clause{Text: "Coverage A applies"}
	assert.Equal(t, "Coverage", c.Excerpt(8))
	assert.Equal(t, "Coverage A applies", c.Excerpt(200))

	// Multi-byte text is cut on rune boundaries.
	c = Clause{Text: "Prämie fällig"}
	assert.Equal(t, "Prä", c.Excerpt(3))
}
