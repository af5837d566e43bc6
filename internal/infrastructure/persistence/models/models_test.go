package models

import (
	"testing"
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectionModel_GeoColumns(t *testing.T) {
	insp, err := inspection.NewInspection(uuid.New(), uuid.New(), "Vistoria NR-23")
	require.NoError(t, err)

	m := InspectionModelFromDomain(insp)
	assert.Nil(t, m.Latitude)
	assert.Nil(t, m.ToDomain().Geo)

	insp.Geo = &valueobject.GeoPoint{Latitude: -23.55, Longitude: -46.63}
	m = InspectionModelFromDomain(insp)
	require.NotNil(t, m.Latitude)
	back := m.ToDomain()
	assert.Equal(t, *insp.Geo, *back.Geo)
	assert.Equal(t, insp.OrganizationID, back.OrganizationID)
	assert.Equal(t, insp.Version, back.Version)
}

func TestChecklistTemplateModel_FieldsCarryTemplateID(t *testing.T) {
	tpl, err := checklist.NewTemplate(nil, "NR-12", "", "maquinas")
	require.NoError(t, err)
	require.NoError(t, tpl.ReplaceFields([]checklist.Field{
		{Label: "Proteção fixa instalada", Type: checklist.FieldTypeBoolean, Required: true},
		{Label: "Tipo de proteção", Type: checklist.FieldTypeSelect, Options: []string{"fixa", "móvel"}},
	}))

	m := ChecklistTemplateModelFromDomain(tpl)
	require.Len(t, m.Fields, 2)
	for _, f := range m.Fields {
		assert.Equal(t, tpl.ID, f.TemplateID)
	}
	back := m.ToDomain()
	assert.Nil(t, back.OrganizationID)
	assert.Equal(t, []string{"fixa", "móvel"}, back.Fields[1].Options)
}

func TestActionItemModel_FlattensPlan(t *testing.T) {
	due := time.Now().Add(72 * time.Hour).Truncate(time.Second)
	item, err := actionplan.NewActionItem(uuid.New(), uuid.New(), "Recarregar extintores", actionplan.Plan{
		What:    "Recarregar",
		When:    &due,
		HowMuch: decimal.RequireFromString("350.00"),
	}, actionplan.PriorityHigh)
	require.NoError(t, err)

	m := ActionItemModelFromDomain(item)
	assert.Equal(t, &due, m.WhenDue)
	back := m.ToDomain()
	assert.True(t, back.HowMuch.Equal(decimal.RequireFromString("350")))
	assert.Equal(t, "Recarregar", back.What)
}
