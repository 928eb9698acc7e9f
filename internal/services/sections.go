package services

import "sow-signoff/backend/pkg/models"

// DefaultSections are the SOW sections initialized when no definitions are
// configured. Role hints are matched against stakeholder role and title.
func DefaultSections() []models.SectionDefinition {
	return []models.SectionDefinition{
		{Name: "Executive Summary", ApprovalRequired: true, Roles: []string{"CEO", "CTO", "CIO", "Executive", "VP", "Sponsor"}},
		{Name: "Current State Assessment", ApprovalRequired: true, Roles: []string{"Architect", "IT Director", "CTO"}},
		{Name: "Recommendations", ApprovalRequired: true, Roles: []string{"CTO", "Architect", "Product"}},
		{Name: "Implementation Roadmap", ApprovalRequired: true, Roles: []string{"Project Manager", "Program Manager", "PMO", "Director"}},
		{Name: "Scope & Deliverables", ApprovalRequired: true, Roles: []string{"Project Manager", "Product"}},
		{Name: "Investment & Pricing", ApprovalRequired: true, Roles: []string{"CFO", "Finance", "Procurement"}},
		{Name: "Terms & Conditions", ApprovalRequired: true, Roles: []string{"Legal", "Procurement", "Counsel"}},
		{Name: "Appendix", ApprovalRequired: false},
	}
}
