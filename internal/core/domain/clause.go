package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Clause is a paragraph-level segment of policy text.
// Clauses are immutable once produced by the segmenter.
type Clause struct {
	// ID is "p{page}_c{sequence}", unique within a document.
	ID string `json:"clause_id"`

	// PageNum is the 1-indexed source page.
	PageNum int `json:"page_num"`

	// Text is the trimmed, non-empty clause content.
	Text string `json:"text"`
}

// ClauseID builds the identifier for a clause on page at sequence seq.
func ClauseID(page, seq int) string {
	return fmt.Sprintf("p%d_c%d", page, seq)
}

// ParseClauseID splits a clause ID back into its page and sequence numbers.
func ParseClauseID(id string) (page, seq int, err error) {
	pagePart, seqPart, ok := strings.Cut(id, "_")
	if !ok || !strings.HasPrefix(pagePart, "p") || !strings.HasPrefix(seqPart, "c") {
		return 0, 0, fmt.Errorf("%w: clause id %q", ErrInvalidInput, id)
	}

	page, err = strconv.Atoi(pagePart[1:])
	if err != nil || page < 1 {
		return 0, 0, fmt.Errorf("%w: clause id %q", ErrInvalidInput, id)
	}
	seq, err = strconv.Atoi(seqPart[1:])
	if err != nil || seq < 1 {
		return 0, 0, fmt.Errorf("%w: clause id %q", ErrInvalidInput, id)
	}
	return page, seq, nil
}

// Label returns the short display form, e.g. "P1-C2".
func (c Clause) Label() string {
	page, seq, err := ParseClauseID(c.ID)
	if err != nil {
		return c.ID
	}
	return fmt.Sprintf("P%d-C%d", page, seq)
}

// Excerpt returns at most n runes of the clause text.
func (c Clause) Excerpt(n int) string {
	runes := []rune(c.Text)
	if len(runes) <= n {
		return c.Text
	}
	return string(runes[:n])
}
