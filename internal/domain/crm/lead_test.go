package crm

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLead(t *testing.T) {
	creator := uuid.New()
	l, err := NewLead(uuid.New(), creator, " Metalúrgica Alfa ")
	require.NoError(t, err)
	assert.Equal(t, "Metalúrgica Alfa", l.CompanyName)
	assert.Equal(t, StageNew, l.Stage)
	assert.Equal(t, creator, *l.OwnerID)

	_, err = NewLead(uuid.New(), creator, "")
	assert.Error(t, err)
}

func TestLead_SetCNPJAndContact(t *testing.T) {
	l, err := NewLead(uuid.New(), uuid.New(), "Alfa")
	require.NoError(t, err)

	require.NoError(t, l.SetCNPJ("11.222.333/0001-81"))
	assert.Equal(t, "11222333000181", l.CNPJ)
	assert.Error(t, l.SetCNPJ("11.222.333/0001-82"))
	require.NoError(t, l.SetCNPJ(""))
	assert.Empty(t, l.CNPJ)

	require.NoError(t, l.SetContact(Contact{Name: "Ana", Email: "Ana@Alfa.com.br"}))
	assert.Equal(t, "ana@alfa.com.br", l.ContactEmail)
	assert.Error(t, l.SetContact(Contact{Email: "not-an-email"}))
}

func TestLead_MoveTo(t *testing.T) {
	l, err := NewLead(uuid.New(), uuid.New(), "Alfa")
	require.NoError(t, err)

	require.NoError(t, l.MoveTo(StageProposal, ""))
	require.NoError(t, l.MoveTo(StageLost, " preço "))
	assert.Equal(t, "preço", l.LostReason)

	assert.Error(t, l.MoveTo(StageNegotiation, ""))
	assert.Error(t, l.Update("Beta", "", decimal.Zero, nil))
	assert.Len(t, l.GetDomainEvents(), 2)

	assert.Error(t, l.MoveTo(Stage("archived"), ""))
}

func TestLead_MarkConverted(t *testing.T) {
	l, err := NewLead(uuid.New(), uuid.New(), "Alfa")
	require.NoError(t, err)
	org := uuid.New()

	assert.Error(t, l.MarkConverted(org))

	require.NoError(t, l.MoveTo(StageWon, ""))
	require.NoError(t, l.MarkConverted(org))
	assert.Equal(t, org, *l.ConvertedOrgID)
	assert.Error(t, l.MarkConverted(uuid.New()))
}

func TestLead_Update(t *testing.T) {
	l, err := NewLead(uuid.New(), uuid.New(), "Alfa")
	require.NoError(t, err)

	require.NoError(t, l.Update("", "ligar segunda", decimal.NewFromInt(5000), nil))
	assert.Equal(t, "Alfa", l.CompanyName)
	assert.True(t, decimal.NewFromInt(5000).Equal(l.EstimatedValue))

	assert.Error(t, l.Update("", "", decimal.NewFromInt(-1), nil))
}
