package models

import (
	"time"
)

// StepStatus is the state of one workflow step
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
)

// WorkflowStatus is the overall state of a sequential approval workflow
type WorkflowStatus string

const (
	WorkflowNotStarted WorkflowStatus = "not_started"
	WorkflowInProgress WorkflowStatus = "in_progress"
	WorkflowCompleted  WorkflowStatus = "completed"
)

// WorkflowStep is a named gate in an approval workflow.
type WorkflowStep struct {
	StepNumber        int        `json:"step_number"`
	StepName          string     `json:"step_name"`
	Description       string     `json:"description,omitempty"`
	RequiredApprovers []string   `json:"required_approvers"`
	ParallelApproval  bool       `json:"parallel_approval"`
	Status            StepStatus `json:"status"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
}

// ApprovalWorkflow is an ordered list of steps signed off one at a time.
// CurrentStep is 1-based and sits one past the last step once completed.
type ApprovalWorkflow struct {
	ID            string         `json:"id" db:"id"`
	ProjectID     string         `json:"project_id" db:"project_id"`
	AssessmentID  string         `json:"assessment_id" db:"assessment_id"`
	Steps         []WorkflowStep `json:"steps" db:"steps"`
	CurrentStep   int            `json:"current_step" db:"current_step"`
	OverallStatus WorkflowStatus `json:"overall_status" db:"overall_status"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty" db:"completed_at"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Current returns the step the workflow is waiting on, if any.
func (w *ApprovalWorkflow) Current() (*WorkflowStep, bool) {
	if w.CurrentStep < 1 || w.CurrentStep > len(w.Steps) {
		return nil, false
	}
	return &w.Steps[w.CurrentStep-1], true
}

// Advance approves the current step and moves the pointer on. It returns
// false, changing nothing, when the workflow is already completed.
func (w *ApprovalWorkflow) Advance(now time.Time) bool {
	if w.OverallStatus == WorkflowCompleted {
		return false
	}
	step, ok := w.Current()
	if !ok {
		// Pointer out of range on an unfinished workflow; settle it as done.
		w.complete(now)
		return true
	}
	at := now
	step.Status = StepApproved
	step.ApprovedAt = &at

	if w.CurrentStep == len(w.Steps) {
		w.complete(now)
		return true
	}
	w.CurrentStep++
	w.OverallStatus = WorkflowInProgress
	return true
}

func (w *ApprovalWorkflow) complete(now time.Time) {
	at := now
	w.CurrentStep = len(w.Steps) + 1
	w.OverallStatus = WorkflowCompleted
	w.CompletedAt = &at
}

// Clone returns a deep copy.
func (w *ApprovalWorkflow) Clone() *ApprovalWorkflow {
	if w == nil {
		return nil
	}
	c := *w
	c.Steps = make([]WorkflowStep, len(w.Steps))
	for i, s := range w.Steps {
		s.RequiredApprovers = append([]string(nil), s.RequiredApprovers...)
		if s.ApprovedAt != nil {
			t := *s.ApprovedAt
			s.ApprovedAt = &t
		}
		c.Steps[i] = s
	}
	if w.CompletedAt != nil {
		t := *w.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
