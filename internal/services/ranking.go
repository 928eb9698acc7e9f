package services

import (
	"context"
	"fmt"
	"sort"

	"sow-signoff/backend/internal/repository"
	"sow-signoff/backend/pkg/models"
)

// Ranking is the scored, ordered candidate list for one question.
type Ranking struct {
	Suggestions []models.StakeholderSuggestion `json:"suggestions"`
	Skipped     []SkippedEntry                 `json:"skipped,omitempty"`
}

// Rank scores every stakeholder and returns those with a positive score,
// highest first. Ties keep directory order. Stakeholders without an ID are
// reported as skipped rather than failing the ranking.
func Rank(stakeholders []*models.Stakeholder, tier models.Tier, phase models.Phase, question string) Ranking {
	ranking := Ranking{Suggestions: []models.StakeholderSuggestion{}}
	for i, st := range stakeholders {
		if st == nil || st.ID == "" {
			entry := SkippedEntry{ID: fmt.Sprintf("#%d", i), Reason: "stakeholder has no id"}
			if st != nil {
				entry.Name = st.Name
			}
			ranking.Skipped = append(ranking.Skipped, entry)
			continue
		}
		score, reasons := Score(st, tier, phase, question)
		if score <= 0 {
			continue
		}
		ranking.Suggestions = append(ranking.Suggestions, models.StakeholderSuggestion{
			Stakeholder: st,
			Reasons:     reasons,
			Score:       score,
			Confidence:  models.ConfidenceFor(score),
		})
	}
	sort.SliceStable(ranking.Suggestions, func(i, j int) bool {
		return ranking.Suggestions[i].Score > ranking.Suggestions[j].Score
	})
	return ranking
}

// RankingService ranks a project's stakeholders against a question.
type RankingService struct {
	directory repository.StakeholderDirectory
	logger    Logger
}

// NewRankingService creates a RankingService reading from directory.
func NewRankingService(directory repository.StakeholderDirectory, logger Logger) *RankingService {
	return &RankingService{directory: directory, logger: orNop(logger)}
}

// SuggestStakeholders ranks the project's stakeholders for a question.
func (s *RankingService) SuggestStakeholders(ctx context.Context, projectID string, tier models.Tier, phase models.Phase, question string) (*Ranking, error) {
	if err := requireField("project_id", projectID); err != nil {
		return nil, err
	}
	stakeholders, err := s.directory.ListStakeholders(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stakeholders: %w", err)
	}
	ranking := Rank(stakeholders, tier, phase, question)
	for _, skipped := range ranking.Skipped {
		s.logger.Warn("Skipping stakeholder during ranking",
			"project_id", projectID, "entry", skipped.ID, "reason", skipped.Reason)
	}
	s.logger.Debug("Ranked stakeholders",
		"project_id", projectID, "tier", tier, "phase", phase, "suggestions", len(ranking.Suggestions))
	return &ranking, nil
}
