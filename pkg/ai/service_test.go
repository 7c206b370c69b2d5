package ai

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider scripts the model response for merge and fallback tests.
type stubProvider struct {
	content string
	err     error
	calls   int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Complete(ctx context.Context, messages []Message, temperature float32) (string, error) {
	p.calls++
	return p.content, p.err
}

func TestClassifyHeuristicOverridesMilderModel(t *testing.T) {
	// Model downplays a mass-casualty report; the heuristic must win.
	provider := &stubProvider{content: `{"detected_type":"medical","priority":4,"severity":"low","confidence":0.3}`}
	svc := NewService(provider, nil)

	result := svc.ClassifyEmergency(context.Background(), "Обрушение здания, несколько человек под завалами")

	assert.Equal(t, "critical", result["severity"])
	assert.Equal(t, 1, result["priority"])
	assert.GreaterOrEqual(t, result["confidence"].(float64), 0.9)
	assert.NotContains(t, result, "error")
}

func TestClassifyFailureReturnsFallbackWithError(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("connection refused")}
	svc := NewService(provider, nil)

	result := svc.ClassifyEmergency(context.Background(), "пожар в здании")

	require.Contains(t, result, "error")
	// The heuristic still escalates what it can see locally.
	assert.Equal(t, "high", result["severity"])
	assert.Equal(t, 2, result["priority"])
	assert.Contains(t, result["keywords"], "пожар")
}

func TestClassifyMalformedJSONFallsBack(t *testing.T) {
	provider := &stubProvider{content: "sorry, I cannot answer that"}
	svc := NewService(provider, nil)

	result := svc.ClassifyEmergency(context.Background(), "авария")
	assert.Contains(t, result, "error")
	assert.Equal(t, "general", result["detected_type"])
}

func TestClassifyToleratesCodeFences(t *testing.T) {
	provider := &stubProvider{content: "```json\n{\"detected_type\":\"fire\",\"priority\":2,\"severity\":\"high\"}\n```"}
	svc := NewService(provider, nil)

	result := svc.ClassifyEmergency(context.Background(), "горит склад")
	assert.Equal(t, "fire", result["detected_type"])
	assert.NotContains(t, result, "error")
}

func TestClassifyFillsMissingFields(t *testing.T) {
	provider := &stubProvider{content: `{"detected_type":"police"}`}
	svc := NewService(provider, nil)

	result := svc.ClassifyEmergency(context.Background(), "security incident downtown")
	for _, key := range []string{
		"detected_type", "priority", "severity", "confidence", "risk_level",
		"keywords", "estimated_victims", "location_hints", "resources", "guidance",
	} {
		assert.Contains(t, result, key, "missing %s", key)
	}
}

func TestRescuePlanFailureFillsPlaceholders(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("timeout")}
	svc := NewService(provider, nil)

	plan := svc.GenerateRescuePlan(context.Background(), "fire", "пожар на складе", "", []string{"автоцистерна"})

	require.Contains(t, plan, "error")
	assert.Equal(t, "Стандартная спасательная операция", plan["operation_name"])
	phases := plan["phases"].([]interface{})
	require.NotEmpty(t, phases)
	assert.Contains(t, plan["resources"], "автоцистерна")
}

func TestRescuePlanDefaultsForSparseModelOutput(t *testing.T) {
	provider := &stubProvider{content: `{"operation_name":"Тушение склада"}`}
	svc := NewService(provider, nil)

	plan := svc.GenerateRescuePlan(context.Background(), "fire", "пожар", "склад", nil)
	assert.Equal(t, "Тушение склада", plan["operation_name"])
	for _, key := range []string{
		"phases", "team_composition", "safety_measures", "evacuation_routes",
		"contingency_plans", "success_criteria", "risks",
	} {
		assert.Contains(t, plan, key, "missing %s", key)
	}
	assert.NotContains(t, plan, "error")
}

func TestSituationReportFallback(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("unavailable")}
	svc := NewService(provider, nil)

	report := svc.AnalyzeSituationReport(context.Background(), "работы продолжаются")
	assert.Contains(t, report, "error")
	assert.Equal(t, "neutral", report["sentiment"])
}

func TestTranscribeUnsupportedProvider(t *testing.T) {
	svc := NewService(&stubProvider{}, nil)
	_, err := svc.Transcribe(context.Background(), "report.ogg", nil)
	assert.Error(t, err)
}
