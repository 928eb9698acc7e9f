// Package models defines the domain models for the SOW sign-off service
package models

import (
	"strings"
	"time"
)

// Tier represents a capability tier used to scope interview questions
type Tier string

const (
	TierData           Tier = "DATA"
	TierAI             Tier = "AI"
	TierInfrastructure Tier = "INFRASTRUCTURE"
	TierApplications   Tier = "APPLICATIONS"
	TierSecurity       Tier = "SECURITY"
	TierOrganization   Tier = "ORGANIZATION"
)

// Phase represents the engagement phase a question belongs to
type Phase string

const (
	PhaseDiscovery      Phase = "DISCOVERY"
	PhaseFoundation     Phase = "FOUNDATION"
	PhaseIntelligence   Phase = "INTELLIGENCE"
	PhaseTransformation Phase = "TRANSFORMATION"
)

// InvolvementLevel is a stakeholder's RACI-style role
type InvolvementLevel string

const (
	InvolvementNone        InvolvementLevel = ""
	InvolvementResponsible InvolvementLevel = "RESPONSIBLE"
	InvolvementAccountable InvolvementLevel = "ACCOUNTABLE"
	InvolvementConsulted   InvolvementLevel = "CONSULTED"
	InvolvementInformed    InvolvementLevel = "INFORMED"
	InvolvementApprover    InvolvementLevel = "APPROVER"
)

// Valid reports whether the level is one of the known values (or unset).
func (l InvolvementLevel) Valid() bool {
	switch l {
	case InvolvementNone, InvolvementResponsible, InvolvementAccountable,
		InvolvementConsulted, InvolvementInformed, InvolvementApprover:
		return true
	}
	return false
}

// Stakeholder is a project participant as supplied by the stakeholder
// directory. The engine never mutates these records.
type Stakeholder struct {
	ID               string           `json:"id" db:"id"`
	ProjectID        string           `json:"project_id" db:"project_id"`
	Name             string           `json:"name" db:"name"`
	Title            string           `json:"title,omitempty" db:"title"`
	Role             string           `json:"role,omitempty" db:"role"`
	Email            string           `json:"email,omitempty" db:"email"`
	KnowledgeAreas   []Tier           `json:"knowledge_areas,omitempty" db:"knowledge_areas"`
	Specializations  []string         `json:"specializations,omitempty" db:"specializations"`
	Responsibilities []string         `json:"responsibilities,omitempty" db:"responsibilities"`
	CanApprove       []string         `json:"can_approve,omitempty" db:"can_approve"`
	InvolvementLevel InvolvementLevel `json:"involvement_level,omitempty" db:"involvement_level"`
	ReportsTo        *string          `json:"reports_to,omitempty" db:"reports_to"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasKnowledgeArea reports whether the stakeholder declared expertise in tier.
func (s *Stakeholder) HasKnowledgeArea(tier Tier) bool {
	for _, t := range s.KnowledgeAreas {
		if strings.EqualFold(string(t), string(tier)) {
			return true
		}
	}
	return false
}

// RoleText returns role and title joined, lower-cased, for heuristic matching.
func (s *Stakeholder) RoleText() string {
	return strings.ToLower(strings.TrimSpace(s.Role + " " + s.Title))
}

// Confidence buckets a suggestion score
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceFor maps a positive score to its bucket.
func ConfidenceFor(score int) Confidence {
	switch {
	case score >= 60:
		return ConfidenceHigh
	case score >= 30:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// StakeholderSuggestion is a ranked candidate for a question or approval duty.
// It is computed on demand and never persisted.
type StakeholderSuggestion struct {
	Stakeholder *Stakeholder `json:"stakeholder"`
	Reasons     []string     `json:"reasons"`
	Score       int          `json:"score"`
	Confidence  Confidence   `json:"confidence"`
}

// Question is the subset of an interview question the assignment engine needs
type Question struct {
	ID    string `json:"id"`
	Tier  Tier   `json:"tier"`
	Phase Phase  `json:"phase"`
	Text  string `json:"text"`
}

// ProblemDetails represents RFC 7807 Problem Details
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}
