package ata

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "extintor de incendio valido", Normalize("  Extintor de Incêndio -- válido! "))
	assert.Equal(t, "nao conforme", Normalize("NÃO-CONFORME"))
	assert.Equal(t, "", Normalize("..."))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard("Extintor de incêndio", "extintor incendio"))
	assert.InDelta(t, 2.0/3.0, Jaccard("Iluminação emergência", "Iluminação de emergência funcionando"), 0.001)
	assert.Equal(t, 0.0, Jaccard("piso", ""))
}

func TestMatchFindings(t *testing.T) {
	extintores, rotas, capacete, iluminacao := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	candidates := []Candidate{
		{ID: extintores, Text: "Extintores dentro da validade"},
		{ID: rotas, Text: "Rotas de fuga sinalizadas"},
		{ID: capacete, Text: "Uso de capacete"},
		{ID: iluminacao, Text: "Iluminação de emergência funcionando"},
	}
	findings := []Finding{
		{Item: "rotas de fuga sinalizadas"},
		{Item: "Capacete"},
		{Item: "Iluminacao emergencia"},
		{Item: "Piso escorregadio"},
		{Item: "Rotas de Fuga Sinalizadas"},
	}

	matches := MatchFindings(findings, candidates)

	byFinding := make(map[int]Match)
	for _, m := range matches {
		byFinding[m.FindingIndex] = m
	}
	require.Len(t, matches, 3)

	assert.Equal(t, rotas, byFinding[0].ItemID)
	assert.Equal(t, MatchExact, byFinding[0].Kind)
	assert.Equal(t, capacete, byFinding[1].ItemID)
	assert.Equal(t, MatchContains, byFinding[1].Kind)
	assert.Equal(t, iluminacao, byFinding[2].ItemID)
	assert.Equal(t, MatchFuzzy, byFinding[2].Kind)
	_, ok := byFinding[3]
	assert.False(t, ok)
	// the item was already taken by the first finding
	_, ok = byFinding[4]
	assert.False(t, ok)
}

func TestMatchFindings_ExactBeforeContainment(t *testing.T) {
	id := uuid.New()
	findings := []Finding{{Item: "Capacete"}, {Item: "Uso de capacete"}}

	matches := MatchFindings(findings, []Candidate{{ID: id, Text: "Uso de capacete"}})

	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].FindingIndex)
	assert.Equal(t, MatchExact, matches[0].Kind)
}

func TestMatchFindings_ShortLabelsDoNotContain(t *testing.T) {
	matches := MatchFindings([]Finding{{Item: "EPI"}}, []Candidate{{ID: uuid.New(), Text: "Treinamento de EPI e EPC"}})
	assert.Empty(t, matches)
}

func TestMatchFindings_BestScoreWinsOverFindingOrder(t *testing.T) {
	sinalizados, carregados := uuid.New(), uuid.New()
	candidates := []Candidate{
		{ID: sinalizados, Text: "Extintores sinalizados desobstruídos"},
		{ID: carregados, Text: "Extintores carregados"},
	}
	// the first finding scores 0.67 against "carregados" and 0.5 against
	// "sinalizados"; the second scores 1.0 against "carregados" only
	findings := []Finding{
		{Item: "Extintores sinalizados carregados"},
		{Item: "Carregados extintores"},
	}

	matches := MatchFindings(findings, candidates)

	require.Len(t, matches, 2)
	assert.Equal(t, 0, matches[0].FindingIndex)
	assert.Equal(t, sinalizados, matches[0].ItemID)
	assert.InDelta(t, 0.5, matches[0].Score, 0.001)
	assert.Equal(t, 1, matches[1].FindingIndex)
	assert.Equal(t, carregados, matches[1].ItemID)
	assert.Equal(t, MatchFuzzy, matches[1].Kind)
}

func TestMatchFindings_TiesGoToEarlierFinding(t *testing.T) {
	id := uuid.New()
	findings := []Finding{{Item: "Capacete uso"}, {Item: "uso capacete"}}

	matches := MatchFindings(findings, []Candidate{{ID: id, Text: "Uso de capacete"}})

	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].FindingIndex)
}
