package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifications(t *testing.T) {
	all := Classifications()
	assert.Len(t, all, 6)
	for _, c := range all {
		assert.True(t, c.IsValid(), c)
	}
}

func TestClassification_IsValid(t *testing.T) {
	assert.True(t, ClassificationDeductibles.IsValid())
	assert.False(t, Classification("Premiums").IsValid())
	assert.False(t, Classification("").IsValid())
}

func TestParseClassification(t *testing.T) {
	tests := []struct {
		in   string
		want Classification
	}{
		{"Coverage", ClassificationCoverage},
		{"exclusions", ClassificationExclusions},
		{"  CLAIMS PROCESS ", ClassificationClaimsProcess},
		{"deductibles/limits", ClassificationDeductibles},
		{"Definitions", ClassificationDefinitions},
		{"General Terms", ClassificationGeneralTerms},
		{"Endorsements", ClassificationGeneralTerms},
		{"", ClassificationGeneralTerms},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseClassification(tt.in))
		})
	}
}
