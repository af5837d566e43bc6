package inspection

import (
	"testing"
	"time"

	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func newTestInspection(t *testing.T) *Inspection {
	t.Helper()
	insp, err := NewInspection(uuid.New(), uuid.New(), "Auditoria NR-12")
	require.NoError(t, err)
	insp.ClearDomainEvents()
	return insp
}

func inspectorSignature(insp *Inspection) Signature {
	sig, _ := NewSignature(insp, SignatureInspector, "Carlos", "Técnico", "orgs/x/sig.png", time.Now())
	return *sig
}

func TestNewInspection(t *testing.T) {
	insp, err := NewInspection(uuid.New(), uuid.New(), "  Vistoria ")
	require.NoError(t, err)
	assert.Equal(t, "Vistoria", insp.Title)
	assert.Equal(t, StatusPending, insp.Status)
	assert.Equal(t, PriorityMedium, insp.Priority)
	assert.NotNil(t, insp.CreatedBy)
	assert.Len(t, insp.GetDomainEvents(), 1)

	_, err = NewInspection(uuid.New(), uuid.New(), "")
	assert.Error(t, err)
}

func TestInspection_UpdateDetails(t *testing.T) {
	insp := newTestInspection(t)

	err := insp.UpdateDetails(Details{
		Title:    "Vistoria anual",
		Address:  valueobject.Address{CEP: "01310-100", State: "sp"},
		Geo:      &valueobject.GeoPoint{Latitude: -23.56, Longitude: -46.65},
		Priority: PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, "01310100", insp.Address.CEP)
	assert.Equal(t, PriorityHigh, insp.Priority)

	assert.Error(t, insp.UpdateDetails(Details{Title: "x", Priority: Priority("urgent")}))
	assert.Error(t, insp.UpdateDetails(Details{Title: "x", Geo: &valueobject.GeoPoint{Latitude: 100}}))
	assert.Error(t, insp.UpdateDetails(Details{Title: ""}))
}

func TestInspection_Start(t *testing.T) {
	insp := newTestInspection(t)
	now := time.Now()

	require.NoError(t, insp.Start(now))
	assert.Equal(t, StatusInProgress, insp.Status)
	assert.Equal(t, now, *insp.StartedAt)

	// idempotent
	require.NoError(t, insp.Start(now.Add(time.Hour)))
	assert.Equal(t, now, *insp.StartedAt)

	require.NoError(t, insp.Cancel())
	assert.Error(t, insp.Start(now))
}

func TestInspection_Finalize(t *testing.T) {
	t.Run("computes score and completes", func(t *testing.T) {
		insp := newTestInspection(t)
		items := []Item{
			{IsCompliant: boolPtr(true), Required: true},
			{IsCompliant: boolPtr(true)},
			{IsCompliant: boolPtr(false)},
			{NotApplicable: true},
			{},
		}
		at := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

		err := insp.Finalize(FinalizeInput{
			Items:      items,
			Signatures: []Signature{inspectorSignature(insp)},
			Summary:    "Ok com ressalvas",
			At:         at,
		})
		require.NoError(t, err)

		assert.Equal(t, StatusCompleted, insp.Status)
		assert.Equal(t, at, *insp.CompletedAt)
		assert.Equal(t, at, *insp.StartedAt)
		assert.True(t, decimal.RequireFromString("66.67").Equal(*insp.ComplianceScore))
		assert.Equal(t, "Ok com ressalvas", insp.Summary)
		require.Len(t, insp.GetDomainEvents(), 2)
		assert.Equal(t, EventTypeInspectionFinalized, insp.GetDomainEvents()[0].EventType())
	})

	t.Run("requires inspector signature", func(t *testing.T) {
		insp := newTestInspection(t)
		responsible, err := NewSignature(insp, SignatureResponsible, "Ana", "", "k", time.Now())
		require.NoError(t, err)

		err = insp.Finalize(FinalizeInput{Signatures: []Signature{*responsible}, At: time.Now()})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "inspector signature")
		assert.Equal(t, StatusPending, insp.Status)
	})

	t.Run("requires required items evaluated", func(t *testing.T) {
		insp := newTestInspection(t)
		items := []Item{{Description: "Extintor válido", Required: true, FieldType: checklist.FieldTypeBoolean}}

		err := insp.Finalize(FinalizeInput{Items: items, Signatures: []Signature{inspectorSignature(insp)}, At: time.Now()})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Extintor válido")
	})

	t.Run("rejects completed inspection", func(t *testing.T) {
		insp := newTestInspection(t)
		in := FinalizeInput{Signatures: []Signature{inspectorSignature(insp)}, At: time.Now()}
		require.NoError(t, insp.Finalize(in))

		assert.Error(t, insp.Finalize(in))
	})
}

func TestInspection_ReopenAndCancel(t *testing.T) {
	insp := newTestInspection(t)
	assert.Error(t, insp.Reopen("x"))

	require.NoError(t, insp.Finalize(FinalizeInput{Signatures: []Signature{inspectorSignature(insp)}, At: time.Now()}))
	assert.False(t, insp.IsEditable())
	assert.Error(t, insp.Cancel())

	require.NoError(t, insp.Reopen("faltou foto"))
	assert.Equal(t, StatusInProgress, insp.Status)
	assert.Nil(t, insp.ComplianceScore)
	assert.Nil(t, insp.CompletedAt)

	require.NoError(t, insp.Cancel())
	assert.Equal(t, StatusCancelled, insp.Status)
}

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  string
	}{
		{name: "no items", items: nil, want: "0"},
		{name: "only not applicable", items: []Item{{NotApplicable: true}}, want: "0"},
		{name: "all compliant", items: []Item{{IsCompliant: boolPtr(true)}, {IsCompliant: boolPtr(true)}}, want: "100"},
		{name: "one third", items: []Item{{IsCompliant: boolPtr(true)}, {IsCompliant: boolPtr(false)}, {IsCompliant: boolPtr(false)}}, want: "33.33"},
		{name: "pending ignored", items: []Item{{IsCompliant: boolPtr(false)}, {}}, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := CalculateScore(tt.items)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(s.Percentage), "got %s", s.Percentage)
			assert.Equal(t, len(tt.items), s.Total)
		})
	}
}

func TestItem_Evaluate(t *testing.T) {
	insp := newTestInspection(t)
	user := uuid.New()

	t.Run("rejects contradictory answer", func(t *testing.T) {
		it, err := NewItem(insp, "EPI", "Uso de capacete", "", 0)
		require.NoError(t, err)
		assert.Equal(t, checklist.FieldTypeBoolean, it.FieldType)

		err = it.Evaluate(Answer{IsCompliant: boolPtr(true), NotApplicable: true}, user, time.Now())
		assert.Error(t, err)
	})

	t.Run("select answer must be an option", func(t *testing.T) {
		it := Item{FieldType: checklist.FieldTypeSelect, Options: []string{"Bom", "Ruim"}}

		assert.Error(t, it.Evaluate(Answer{Response: "Péssimo"}, user, time.Now()))
		require.NoError(t, it.Evaluate(Answer{Response: "bom"}, user, time.Now()))
		assert.True(t, it.IsEvaluated())
	})

	t.Run("multiselect answers are split on semicolons", func(t *testing.T) {
		it := Item{FieldType: checklist.FieldTypeMultiSelect, Options: []string{"A", "B", "C"}}

		require.NoError(t, it.Evaluate(Answer{Response: "A; C"}, user, time.Now()))
		assert.Error(t, it.Evaluate(Answer{Response: "A;D"}, user, time.Now()))
	})

	t.Run("human answer clears ai flag", func(t *testing.T) {
		it := Item{FieldType: checklist.FieldTypeBoolean}
		require.True(t, it.ApplySuggestion(boolPtr(false), "sem extintor"))
		assert.True(t, it.AIAssisted)

		require.NoError(t, it.Evaluate(Answer{IsCompliant: boolPtr(true)}, user, time.Now()))
		assert.False(t, it.AIAssisted)
		assert.Equal(t, user, *it.EvaluatedBy)
	})
}

func TestItem_ApplySuggestion(t *testing.T) {
	it := Item{FieldType: checklist.FieldTypeBoolean, IsCompliant: boolPtr(true)}

	applied := it.ApplySuggestion(boolPtr(false), "Extintor vencido")
	assert.False(t, applied)
	assert.True(t, *it.IsCompliant)
	assert.Equal(t, "Extintor vencido", it.AIObservation)
	assert.False(t, it.AIAssisted)
}

func TestItemsFromTemplate(t *testing.T) {
	tpl, err := checklist.NewTemplate(nil, "NR-23", "", "")
	require.NoError(t, err)
	require.NoError(t, tpl.ReplaceFields([]checklist.Field{
		{Label: "Rotas de fuga sinalizadas", Category: "Sinalização", Type: checklist.FieldTypeBoolean, Required: true},
		{Label: "Quantidade de extintores", Type: checklist.FieldTypeNumber},
	}))
	insp := newTestInspection(t)

	items := ItemsFromTemplate(insp, tpl)

	require.Len(t, items, 2)
	assert.Equal(t, insp.ID, items[0].InspectionID)
	assert.Equal(t, insp.OrganizationID, items[0].OrganizationID)
	assert.Equal(t, tpl.Fields[0].ID, *items[0].FieldID)
	assert.True(t, items[0].Required)
	assert.Equal(t, 1, items[1].SortOrder)
	assert.Equal(t, []string{"Rotas de fuga sinalizadas"}, MissingRequired(items))
}

func TestNewMedia(t *testing.T) {
	insp := newTestInspection(t)

	m, err := NewMedia(insp, nil, "../../etc/foto.jpg", "image/jpeg", 1024, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "foto.jpg", m.FileName)
	assert.Equal(t, MediaTypeImage, m.Type)
	assert.Equal(t, insp.OrganizationID, m.OrganizationID)
	assert.Empty(t, m.StorageKey)

	_, err = NewMedia(insp, nil, "a.mp4", "video/mp4", MaxMediaSize+1, uuid.New())
	assert.Error(t, err)
	_, err = NewMedia(insp, nil, "", "video/mp4", 10, uuid.New())
	assert.Error(t, err)

	assert.Equal(t, MediaTypeAudio, MediaTypeFromMIME("audio/webm;codecs=opus"))
	assert.Equal(t, MediaTypeDocument, MediaTypeFromMIME("application/pdf"))
}
