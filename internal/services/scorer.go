package services

import (
	"fmt"
	"strings"

	"sow-signoff/backend/pkg/models"
)

// Scoring weights.
const (
	weightTierExpertise    = 50
	weightSpecialization   = 10
	weightInvolvement      = 20
	weightResponsibility   = 15
	weightPhaseRole        = 15
	weightIntelligenceTier = 20
)

// Score rates how relevant st is to a question of the given tier and phase,
// returning the additive score and the reasons that produced it. A zero
// score means no signal at all.
func Score(st *models.Stakeholder, tier models.Tier, phase models.Phase, question string) (int, []string) {
	if st == nil {
		return 0, nil
	}
	var (
		score   int
		reasons []string
	)

	if tier != "" && st.HasKnowledgeArea(tier) {
		score += weightTierExpertise
		reasons = append(reasons, fmt.Sprintf("%s tier expertise", tier))
	}

	var matched []string
	for _, spec := range st.Specializations {
		if containsFold(question, spec) {
			score += weightSpecialization
			matched = append(matched, strings.TrimSpace(spec))
		}
	}
	if len(matched) > 0 {
		reasons = append(reasons, "Specializes in "+strings.Join(matched, ", "))
	}

	switch st.InvolvementLevel {
	case models.InvolvementResponsible, models.InvolvementAccountable:
		score += weightInvolvement
		reasons = append(reasons, fmt.Sprintf("%s for this area", strings.ToLower(string(st.InvolvementLevel))))
	}

	first := ""
	for _, resp := range st.Responsibilities {
		if containsFold(question, resp) || containsFold(resp, string(tier)) {
			score += weightResponsibility
			if first == "" {
				first = strings.TrimSpace(resp)
			}
		}
	}
	if first != "" {
		reasons = append(reasons, "Responsible for "+first)
	}

	roleText := st.RoleText()
	switch {
	case phase == models.PhaseDiscovery && strings.Contains(roleText, "product"):
		score += weightPhaseRole
		reasons = append(reasons, "Product perspective for discovery")
	case phase == models.PhaseFoundation && strings.Contains(roleText, "architect"):
		score += weightPhaseRole
		reasons = append(reasons, "Architecture perspective for foundation work")
	case phase == models.PhaseIntelligence && strings.EqualFold(string(tier), string(models.TierAI)):
		score += weightIntelligenceTier
		reasons = append(reasons, "AI question in the intelligence phase")
	}

	return score, reasons
}
