package models

import (
	"time"
)

// ApprovalStatus is the aggregate state of a SOW section's sign-off
type ApprovalStatus string

const (
	ApprovalPending          ApprovalStatus = "pending"
	ApprovalApproved         ApprovalStatus = "approved"
	ApprovalRejected         ApprovalStatus = "rejected"
	ApprovalChangesRequested ApprovalStatus = "changes_requested"
)

// DecisionStatus is what a single stakeholder decided on a section
type DecisionStatus string

const (
	DecisionApproved         DecisionStatus = "approved"
	DecisionRejected         DecisionStatus = "rejected"
	DecisionChangesRequested DecisionStatus = "changes_requested"
)

// Valid reports whether s is a known decision status.
func (s DecisionStatus) Valid() bool {
	switch s {
	case DecisionApproved, DecisionRejected, DecisionChangesRequested:
		return true
	}
	return false
}

// ApprovalDecision is one stakeholder's live decision on a section.
type ApprovalDecision struct {
	StakeholderID string         `json:"stakeholder_id"`
	Status        DecisionStatus `json:"status"`
	Comments      string         `json:"comments,omitempty"`
	DecidedAt     time.Time      `json:"decided_at"`
}

// SectionDefinition describes a SOW section to initialize sign-off for.
// Roles are free-text hints matched against stakeholder role and title.
type SectionDefinition struct {
	Name             string   `json:"name" yaml:"name" mapstructure:"name"`
	ApprovalRequired bool     `json:"approval_required" yaml:"approval_required" mapstructure:"approval_required"`
	Roles            []string `json:"roles,omitempty" yaml:"roles" mapstructure:"roles"`
}

// SectionApproval is the sign-off record of one SOW section within a
// (project, assessment) pair.
type SectionApproval struct {
	ID                string             `json:"id" db:"id"`
	ProjectID         string             `json:"project_id" db:"project_id"`
	AssessmentID      string             `json:"assessment_id" db:"assessment_id"`
	SectionName       string             `json:"section_name" db:"section_name"`
	ApprovalRequired  bool               `json:"approval_required" db:"approval_required"`
	RequiredApprovers []string           `json:"required_approvers" db:"required_approvers"`
	Decisions         []ApprovalDecision `json:"decisions" db:"decisions"`
	Status            ApprovalStatus     `json:"status" db:"status"`
	FinalizedAt       *time.Time         `json:"finalized_at,omitempty" db:"finalized_at"`
	FinalizedBy       *string            `json:"finalized_by,omitempty" db:"finalized_by"`

	// Version is bumped by the store on every successful update.
	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DeriveStatus computes a section's aggregate status. Rejection dominates,
// then change requests; otherwise the section is approved once every
// required approver has a live approval (vacuously true for an empty set).
func DeriveStatus(requiredApprovers []string, decisions []ApprovalDecision) ApprovalStatus {
	approved := make(map[string]bool, len(decisions))
	changes := false
	for _, d := range decisions {
		switch d.Status {
		case DecisionRejected:
			return ApprovalRejected
		case DecisionChangesRequested:
			changes = true
		case DecisionApproved:
			approved[d.StakeholderID] = true
		}
	}
	if changes {
		return ApprovalChangesRequested
	}
	for _, id := range requiredApprovers {
		if !approved[id] {
			return ApprovalPending
		}
	}
	return ApprovalApproved
}

// Decision returns the live decision of a stakeholder, if any.
func (a *SectionApproval) Decision(stakeholderID string) (ApprovalDecision, bool) {
	for _, d := range a.Decisions {
		if d.StakeholderID == stakeholderID {
			return d, true
		}
	}
	return ApprovalDecision{}, false
}

// RecordDecision stores d as the stakeholder's only live decision.
func (a *SectionApproval) RecordDecision(d ApprovalDecision) {
	kept := a.Decisions[:0:0]
	for _, existing := range a.Decisions {
		if existing.StakeholderID != d.StakeholderID {
			kept = append(kept, existing)
		}
	}
	a.Decisions = append(kept, d)
}

// PendingApprovers lists required approvers without a live approval, in
// required-approver order.
func (a *SectionApproval) PendingApprovers() []string {
	var pending []string
	for _, id := range a.RequiredApprovers {
		if d, ok := a.Decision(id); ok && d.Status == DecisionApproved {
			continue
		}
		pending = append(pending, id)
	}
	return pending
}

// Refresh re-derives Status and maintains the finalization stamp. Entering
// approved stamps FinalizedAt/FinalizedBy with actor, or with the most
// recent approver when actor is empty. Leaving approved clears both.
// It reports whether the status changed.
func (a *SectionApproval) Refresh(actor string, now time.Time) bool {
	prev := a.Status
	a.Status = DeriveStatus(a.RequiredApprovers, a.Decisions)

	switch {
	case a.Status == ApprovalApproved && (prev != ApprovalApproved || a.FinalizedAt == nil):
		at := now
		a.FinalizedAt = &at
		if actor == "" {
			actor = a.latestApprover()
		}
		if actor != "" {
			by := actor
			a.FinalizedBy = &by
		} else {
			a.FinalizedBy = nil
		}
	case a.Status != ApprovalApproved:
		a.FinalizedAt = nil
		a.FinalizedBy = nil
	}
	return prev != a.Status
}

func (a *SectionApproval) latestApprover() string {
	var (
		id     string
		latest time.Time
	)
	for _, d := range a.Decisions {
		if d.Status == DecisionApproved && !d.DecidedAt.Before(latest) {
			id, latest = d.StakeholderID, d.DecidedAt
		}
	}
	return id
}

// Clone returns a deep copy.
func (a *SectionApproval) Clone() *SectionApproval {
	if a == nil {
		return nil
	}
	c := *a
	c.RequiredApprovers = append([]string(nil), a.RequiredApprovers...)
	c.Decisions = append([]ApprovalDecision(nil), a.Decisions...)
	if a.FinalizedAt != nil {
		t := *a.FinalizedAt
		c.FinalizedAt = &t
	}
	if a.FinalizedBy != nil {
		s := *a.FinalizedBy
		c.FinalizedBy = &s
	}
	return &c
}

// ApprovalStatistics summarizes sign-off progress for an assessment
type ApprovalStatistics struct {
	TotalSections        int `json:"total_sections"`
	Approved             int `json:"approved"`
	Pending              int `json:"pending"`
	Rejected             int `json:"rejected"`
	ChangesRequested     int `json:"changes_requested"`
	CompletionPercentage int `json:"completion_percentage"`
}
