package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/claimpilot/internal/domain"
)

func sampleClauses() []domain.RetrievedClause {
	return []domain.RetrievedClause{
		{ChunkID: "chunk_0", Section: "SURGICAL COVERAGE", Text: "Knee surgery is covered up to 150000.", Similarity: 0.91},
		{ChunkID: "chunk_1", Section: "GEOGRAPHIC COVERAGE", Text: "Treatment in Pune is covered.", Similarity: 0.77},
	}
}

func sampleParsed() domain.ParsedQuery {
	age := 46
	gender := domain.GenderMale
	months := 3
	return domain.ParsedQuery{
		Age:                  &age,
		Gender:               &gender,
		Procedure:            "knee surgery",
		Location:             "Pune",
		PolicyDurationMonths: &months,
	}
}

func TestDecisionReasoner_Decide_Approved(t *testing.T) {
	chat := &scriptedChat{responses: []string{
		`{"approved": true, "amount": 150000, "reasoning": "Knee surgery is covered under SURGICAL COVERAGE.", "relevant_clauses": ["SURGICAL COVERAGE"], "confidence": "high", "risk_factors": []}`,
	}}
	reasoner := NewDecisionReasoner(chat)

	decision, err := reasoner.Decide(context.Background(), sampleParsed(), sampleClauses())
	require.NoError(t, err)

	assert.True(t, decision.Approved)
	require.NotNil(t, decision.Amount)
	assert.Equal(t, 150000, *decision.Amount)
	assert.Equal(t, domain.ConfidenceHigh, decision.Confidence)
	assert.Equal(t, []string{"SURGICAL COVERAGE"}, decision.RelevantClauses)
}

func TestDecisionReasoner_Decide_RejectedClearsAmount(t *testing.T) {
	chat := &scriptedChat{responses: []string{
		`{"approved": false, "amount": 50000, "reasoning": "Waiting period of 24 months not met.", "relevant_clauses": ["SURGICAL COVERAGE"], "confidence": "high", "risk_factors": ["policy only 3 months old"]}`,
	}}
	reasoner := NewDecisionReasoner(chat)

	decision, err := reasoner.Decide(context.Background(), sampleParsed(), sampleClauses())
	require.NoError(t, err)

	assert.False(t, decision.Approved)
	assert.Nil(t, decision.Amount, "amount must be dropped when not approved")
}

func TestDecisionReasoner_Decide_ApprovedWithoutAmount(t *testing.T) {
	chat := &scriptedChat{responses: []string{
		`{"approved": true, "amount": null, "reasoning": "Covered but no amount stated.", "relevant_clauses": [], "confidence": "medium"}`,
	}}
	reasoner := NewDecisionReasoner(chat)

	decision, err := reasoner.Decide(context.Background(), sampleParsed(), sampleClauses())
	require.NoError(t, err)

	assert.True(t, decision.Approved)
	require.NotNil(t, decision.Amount)
	assert.Contains(t, decision.RiskFactors, "approved amount not estimated by analysis")
}

func TestDecisionReasoner_Decide_FiltersUnknownClauses(t *testing.T) {
	chat := &scriptedChat{responses: []string{
		`{"approved": true, "amount": 1000, "reasoning": "Covered.", "relevant_clauses": ["SURGICAL COVERAGE", "DENTAL COVERAGE", "GEOGRAPHIC COVERAGE"], "confidence": "medium", "risk_factors": []}`,
	}}
	reasoner := NewDecisionReasoner(chat)

	decision, err := reasoner.Decide(context.Background(), sampleParsed(), sampleClauses())
	require.NoError(t, err)

	// DENTAL COVERAGE was never retrieved, so it cannot be cited.
	assert.Equal(t, []string{"SURGICAL COVERAGE", "GEOGRAPHIC COVERAGE"}, decision.RelevantClauses)
}

func TestDecisionReasoner_Decide_DefaultsMissingFields(t *testing.T) {
	chat := &scriptedChat{responses: []string{
		`{"approved": false, "reasoning": "Not enough information.", "confidence": "certain"}`,
	}}
	reasoner := NewDecisionReasoner(chat)

	decision, err := reasoner.Decide(context.Background(), sampleParsed(), sampleClauses())
	require.NoError(t, err)

	assert.Equal(t, domain.ConfidenceLow, decision.Confidence, "unknown confidence collapses to low")
	assert.NotNil(t, decision.RiskFactors)
	assert.Empty(t, decision.RiskFactors)
	assert.Empty(t, decision.RelevantClauses)
}

func TestDecisionReasoner_Decide_RetriesStructuralFailures(t *testing.T) {
	chat := &scriptedChat{responses: []string{
		"the claim looks fine to me",
		`{"approved": "yes", "reasoning": "Covered."}`,
		`{"approved": true, "amount": 2000, "reasoning": "Covered.", "relevant_clauses": [], "confidence": "low", "risk_factors": []}`,
	}}
	reasoner := NewDecisionReasonerWithConfig(chat, 2, time.Second)

	decision, err := reasoner.Decide(context.Background(), sampleParsed(), sampleClauses())
	require.NoError(t, err)
	assert.True(t, decision.Approved)
	assert.Equal(t, 3, chat.calls)
}

func TestDecisionReasoner_Decide_ExhaustsRetries(t *testing.T) {
	chat := &scriptedChat{responses: []string{"nope", "nope", "nope"}}
	reasoner := NewDecisionReasonerWithConfig(chat, 2, time.Second)

	_, err := reasoner.Decide(context.Background(), sampleParsed(), sampleClauses())
	require.Error(t, err)
	assert.Equal(t, 3, chat.calls)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeDecision, derr.Code)
}

func TestBuildDecisionPrompt_IncludesClausesAndDetails(t *testing.T) {
	prompt := buildDecisionPrompt(sampleParsed(), sampleClauses())

	assert.Contains(t, prompt, "Patient Age: 46")
	assert.Contains(t, prompt, "Medical Procedure: knee surgery")
	assert.Contains(t, prompt, "[SURGICAL COVERAGE]")
	assert.Contains(t, prompt, "Knee surgery is covered up to 150000.")
	assert.Contains(t, prompt, "Emergency Case: No")
}

func TestBuildDecisionPrompt_EmptyClauses(t *testing.T) {
	prompt := buildDecisionPrompt(domain.ParsedQuery{}, nil)

	assert.Contains(t, prompt, "no supporting clauses were found")
	assert.Contains(t, prompt, "Patient Age: Not specified")
	assert.Contains(t, prompt, "MISSING INFORMATION")
}
