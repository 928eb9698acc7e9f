package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sow-signoff/backend/pkg/models"
)

func TestMatchesRole(t *testing.T) {
	tests := []struct {
		name  string
		st    *models.Stakeholder
		hints []string
		want  bool
	}{
		{"hint inside title", &models.Stakeholder{Title: "Enterprise Architecture Lead"}, []string{"Architect"}, true},
		{"role inside hint", &models.Stakeholder{Role: "Product"}, []string{"Product Owner"}, true},
		{"case-insensitive", &models.Stakeholder{Role: "cfo"}, []string{"CFO"}, true},
		{"substring across words", &models.Stakeholder{Title: "IT Director"}, []string{"CTO"}, true},
		{"surrounding whitespace", &models.Stakeholder{Role: "  Legal "}, []string{"legal"}, true},
		{"no overlap", &models.Stakeholder{Role: "Engineer"}, []string{"CFO", "Legal"}, false},
		{"empty role and title", &models.Stakeholder{}, []string{"CEO"}, false},
		{"empty hint", &models.Stakeholder{Role: "CEO"}, []string{"", " "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesRole(tt.st, tt.hints))
		})
	}
}

func TestMatchesRoleWords(t *testing.T) {
	assert.True(t, matchesRoleWords(&models.Stakeholder{Title: "Chief Technology Officer"}, []string{"technology"}))
	assert.True(t, matchesRoleWords(&models.Stakeholder{Role: "Product"}, []string{"Product Owner"}))
	assert.False(t, matchesRoleWords(&models.Stakeholder{Title: "IT Director"}, []string{"cto"}))
	assert.False(t, matchesRoleWords(&models.Stakeholder{Title: "Enterprise Architecture Lead"}, []string{"architect"}))
}

func TestCanApproveSection(t *testing.T) {
	assert.True(t, canApproveSection(&models.Stakeholder{CanApprove: []string{"pricing"}}, "Investment & Pricing"))
	assert.True(t, canApproveSection(&models.Stakeholder{CanApprove: []string{"Entire SOW"}}, "Terms"))
	assert.True(t, canApproveSection(&models.Stakeholder{CanApprove: []string{"Executive"}}, "Appendix"))
	assert.False(t, canApproveSection(&models.Stakeholder{CanApprove: []string{"Budget", ""}}, "Terms"))
}
