package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/clausewise/internal/core/domain"
)

// paragraphBreak matches two or more newlines, allowing whitespace between them.
var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Segment splits page texts into clauses.
// Pages are numbered from 1 and clause sequence numbers restart on each page.
func Segment(pageTexts []string) []domain.Clause {
	var clauses []domain.Clause

	for i, text := range pageTexts {
		page := i + 1
		seq := 0
		for _, fragment := range paragraphBreak.Split(text, -1) {
			fragment = strings.TrimSpace(fragment)
			if fragment == "" {
				continue
			}
			seq++
			clauses = append(clauses, domain.Clause{
				ID:      domain.ClauseID(page, seq),
				PageNum: page,
				Text:    fragment,
			})
		}
	}

	return clauses
}

// CountClauses returns the number of clauses.
func CountClauses(clauses []domain.Clause) int {
	return len(clauses)
}
