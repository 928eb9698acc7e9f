package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sow-signoff/backend/pkg/models"
)

func rankingStakeholders() []*models.Stakeholder {
	return []*models.Stakeholder{
		{ID: "a", Name: "Ada", Specializations: []string{"kafka"}},
		{ID: "b", Name: "Ben", KnowledgeAreas: []models.Tier{models.TierData}},
		{ID: "c", Name: "Cy", Specializations: []string{"streaming"}},
		{ID: "d", Name: "Dee"},
		{ID: "", Name: "Nobody", KnowledgeAreas: []models.Tier{models.TierData}},
		{ID: "e", Name: "Eve", KnowledgeAreas: []models.Tier{models.TierData}, InvolvementLevel: models.InvolvementResponsible},
	}
}

func TestRank_OrderAndExclusion(t *testing.T) {
	ranking := Rank(rankingStakeholders(), models.TierData, models.PhaseTransformation, "Do you run kafka streaming?")

	var ids []string
	for _, s := range ranking.Suggestions {
		ids = append(ids, s.Stakeholder.ID)
	}
	// Eve 70, Ben 50, then Ada and Cy tied at 10 in directory order; Dee has no signal.
	assert.Equal(t, []string{"e", "b", "a", "c"}, ids)
	assert.Equal(t, models.ConfidenceHigh, ranking.Suggestions[0].Confidence)
	assert.Equal(t, models.ConfidenceMedium, ranking.Suggestions[1].Confidence)
	assert.Equal(t, models.ConfidenceLow, ranking.Suggestions[3].Confidence)

	require.Len(t, ranking.Skipped, 1)
	assert.Equal(t, "Nobody", ranking.Skipped[0].Name)
}

func TestRank_Empty(t *testing.T) {
	ranking := Rank(nil, models.TierData, models.PhaseDiscovery, "")
	assert.NotNil(t, ranking.Suggestions)
	assert.Empty(t, ranking.Suggestions)
	assert.Empty(t, ranking.Skipped)
}

func TestRankingService_SuggestStakeholders(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("ListStakeholders", mock.Anything, testProject).Return(rankingStakeholders(), nil)

	svc := NewRankingService(dir, &NoOpLogger{})
	ranking, err := svc.SuggestStakeholders(context.Background(), testProject, models.TierData, models.PhaseDiscovery, "")

	require.NoError(t, err)
	require.Len(t, ranking.Suggestions, 2)
	assert.Equal(t, "e", ranking.Suggestions[0].Stakeholder.ID)
	dir.AssertExpectations(t)
}

func TestRankingService_Errors(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("ListStakeholders", mock.Anything, "broken").Return(nil, errors.New("directory offline"))

	svc := NewRankingService(dir, nil)

	_, err := svc.SuggestStakeholders(context.Background(), "broken", models.TierData, models.PhaseDiscovery, "")
	assert.ErrorContains(t, err, "directory offline")

	_, err = svc.SuggestStakeholders(context.Background(), " ", models.TierData, models.PhaseDiscovery, "")
	assert.True(t, IsValidation(err))
	dir.AssertNumberOfCalls(t, "ListStakeholders", 1)
}
