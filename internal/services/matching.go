package services

import (
	"slices"
	"strings"
	"unicode"

	"sow-signoff/backend/pkg/models"
)

// Free-text matching used by role, approval-authority and question
// heuristics. All comparisons are case-insensitive and ignore surrounding
// whitespace; an empty side never matches.

func containsFold(s, substr string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	substr = strings.ToLower(strings.TrimSpace(substr))
	if s == "" || substr == "" {
		return false
	}
	return strings.Contains(s, substr)
}

// overlaps reports whether either string contains the other.
func overlaps(a, b string) bool {
	return containsFold(a, b) || containsFold(b, a)
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsWords(hay, needle []string) bool {
	if len(needle) == 0 {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if slices.Equal(hay[i:i+len(needle)], needle) {
			return true
		}
	}
	return false
}

// overlapsWords is overlaps at word granularity, so "CTO" does not match
// "Director".
func overlapsWords(a, b string) bool {
	wa, wb := words(a), words(b)
	return containsWords(wa, wb) || containsWords(wb, wa)
}

// matchesRole reports whether any hint overlaps the stakeholder's role or
// title as a case-insensitive substring in either direction.
func matchesRole(st *models.Stakeholder, hints []string) bool {
	for _, hint := range hints {
		if overlaps(st.Role, hint) || overlaps(st.Title, hint) {
			return true
		}
	}
	return false
}

// matchesRoleWords is matchesRole at word granularity. It is used only for
// grouping stakeholders into default workflow steps, where short hints such
// as "cto" must not pick up unrelated titles.
func matchesRoleWords(st *models.Stakeholder, hints []string) bool {
	for _, hint := range hints {
		if overlapsWords(st.Role, hint) || overlapsWords(st.Title, hint) {
			return true
		}
	}
	return false
}

// sowAuthorityTokens match approval authorities that cover the whole SOW.
var sowAuthorityTokens = []string{"sow", "executive"}

// canApproveSection reports whether one of the stakeholder's approval
// authorities covers the named section or the SOW as a whole.
func canApproveSection(st *models.Stakeholder, sectionName string) bool {
	for _, authority := range st.CanApprove {
		if overlaps(authority, sectionName) {
			return true
		}
		for _, token := range sowAuthorityTokens {
			if overlaps(authority, token) {
				return true
			}
		}
	}
	return false
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}
