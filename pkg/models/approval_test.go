package models

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decision(id string, status DecisionStatus, at time.Time) ApprovalDecision {
	return ApprovalDecision{StakeholderID: id, Status: status, DecidedAt: at}
}

func TestDeriveStatus(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		required  []string
		decisions []ApprovalDecision
		want      ApprovalStatus
	}{
		{"no required approvers is vacuously approved", nil, nil, ApprovalApproved},
		{"missing approval stays pending", []string{"s1", "s2"}, []ApprovalDecision{decision("s1", DecisionApproved, now)}, ApprovalPending},
		{"all required approved", []string{"s1", "s2"}, []ApprovalDecision{decision("s1", DecisionApproved, now), decision("s2", DecisionApproved, now)}, ApprovalApproved},
		{"rejection dominates", []string{"s1"}, []ApprovalDecision{decision("s1", DecisionApproved, now), decision("x", DecisionRejected, now)}, ApprovalRejected},
		{"rejection beats changes requested", nil, []ApprovalDecision{decision("a", DecisionChangesRequested, now), decision("b", DecisionRejected, now)}, ApprovalRejected},
		{"changes requested by ad-hoc reviewer", []string{"s1"}, []ApprovalDecision{decision("s1", DecisionApproved, now), decision("x", DecisionChangesRequested, now)}, ApprovalChangesRequested},
		{"ad-hoc approval does not satisfy requirement", []string{"s1"}, []ApprovalDecision{decision("x", DecisionApproved, now)}, ApprovalPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.required, tt.decisions))
		})
	}
}

func TestRecordDecision_ReplacesPriorDecision(t *testing.T) {
	now := time.Now()
	a := &SectionApproval{RequiredApprovers: []string{"s1"}}

	a.RecordDecision(decision("s1", DecisionRejected, now))
	a.RecordDecision(decision("s2", DecisionApproved, now))
	a.RecordDecision(decision("s1", DecisionApproved, now.Add(time.Minute)))

	require.Len(t, a.Decisions, 2)
	d, ok := a.Decision("s1")
	require.True(t, ok)
	assert.Equal(t, DecisionApproved, d.Status)
	assert.Equal(t, "s1", a.Decisions[1].StakeholderID)
}

func TestRefresh_FinalizationStamps(t *testing.T) {
	now := time.Now()
	a := &SectionApproval{
		SectionName:       "Executive Summary",
		RequiredApprovers: []string{"s1", "s2"},
		Status:            ApprovalPending,
	}

	a.RecordDecision(decision("s1", DecisionApproved, now))
	assert.False(t, a.Refresh("s1", now))
	assert.Equal(t, ApprovalPending, a.Status)
	assert.Nil(t, a.FinalizedAt)

	a.RecordDecision(decision("s2", DecisionApproved, now))
	assert.True(t, a.Refresh("s2", now))
	assert.Equal(t, ApprovalApproved, a.Status)
	require.NotNil(t, a.FinalizedBy)
	assert.Equal(t, "s2", *a.FinalizedBy)

	a.RecordDecision(decision("s1", DecisionRejected, now))
	assert.True(t, a.Refresh("s1", now))
	assert.Equal(t, ApprovalRejected, a.Status)
	assert.Nil(t, a.FinalizedAt)
	assert.Nil(t, a.FinalizedBy)
}

func TestRefresh_WithoutActorUsesLatestApprover(t *testing.T) {
	now := time.Now()
	a := &SectionApproval{
		RequiredApprovers: []string{"s1", "s2"},
		Decisions: []ApprovalDecision{
			decision("s2", DecisionApproved, now.Add(time.Minute)),
			decision("s1", DecisionApproved, now),
		},
		Status: ApprovalPending,
	}

	a.Refresh("", now)

	require.NotNil(t, a.FinalizedBy)
	assert.Equal(t, "s2", *a.FinalizedBy)
}

func TestPendingApprovers(t *testing.T) {
	a := &SectionApproval{
		RequiredApprovers: []string{"s1", "s2", "s3"},
		Decisions: []ApprovalDecision{
			decision("s1", DecisionApproved, time.Now()),
			decision("s2", DecisionChangesRequested, time.Now()),
		},
	}
	assert.Equal(t, []string{"s2", "s3"}, a.PendingApprovers())
}

func TestClone_DoesNotAlias(t *testing.T) {
	by := "s1"
	a := &SectionApproval{RequiredApprovers: []string{"s1"}, FinalizedBy: &by}
	c := a.Clone()
	c.RequiredApprovers[0] = "other"
	*c.FinalizedBy = "other"

	assert.Equal(t, "s1", a.RequiredApprovers[0])
	assert.Equal(t, "s1", *a.FinalizedBy)
}

// Stakeholder pool used by the property tests: index i is "s<i>".
var pool = []string{"s0", "s1", "s2", "s3"}

// build turns generated masks into a section. kinds[i]: 0 none, 1 approved,
// 2 rejected, 3 changes requested.
func build(required []bool, kinds []int) ([]string, []ApprovalDecision) {
	var req []string
	var decisions []ApprovalDecision
	for i, id := range pool {
		if required[i] {
			req = append(req, id)
		}
		switch kinds[i] {
		case 1:
			decisions = append(decisions, decision(id, DecisionApproved, time.Time{}))
		case 2:
			decisions = append(decisions, decision(id, DecisionRejected, time.Time{}))
		case 3:
			decisions = append(decisions, decision(id, DecisionChangesRequested, time.Time{}))
		}
	}
	return req, decisions
}

func TestDeriveStatus_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	requiredGen := gen.SliceOfN(len(pool), gen.Bool())
	kindsGen := gen.SliceOfN(len(pool), gen.IntRange(0, 3))

	properties.Property("approved iff every required approver approved and nobody rejected", prop.ForAll(
		func(required []bool, kinds []int) bool {
			req, decisions := build(required, kinds)
			status := DeriveStatus(req, decisions)

			allApproved := true
			for i := range pool {
				if required[i] && kinds[i] != 1 {
					allApproved = false
				}
			}
			anyRejected := false
			anyChanges := false
			for _, k := range kinds {
				anyRejected = anyRejected || k == 2
				anyChanges = anyChanges || k == 3
			}
			return (status == ApprovalApproved) == (allApproved && !anyRejected && !anyChanges)
		},
		requiredGen, kindsGen,
	))

	properties.Property("rejected iff some live decision is a rejection", prop.ForAll(
		func(required []bool, kinds []int) bool {
			req, decisions := build(required, kinds)
			anyRejected := false
			for _, k := range kinds {
				anyRejected = anyRejected || k == 2
			}
			return (DeriveStatus(req, decisions) == ApprovalRejected) == anyRejected
		},
		requiredGen, kindsGen,
	))

	properties.Property("status does not depend on decision order", prop.ForAll(
		func(required []bool, kinds []int) bool {
			req, decisions := build(required, kinds)
			reversed := make([]ApprovalDecision, len(decisions))
			for i, d := range decisions {
				reversed[len(decisions)-1-i] = d
			}
			return DeriveStatus(req, decisions) == DeriveStatus(req, reversed)
		},
		requiredGen, kindsGen,
	))

	properties.TestingRun(t)
}
