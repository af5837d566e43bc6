package lookup

import (
	"context"
	"fmt"
	"testing"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/lookup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRegistry is a mock implementation of Registry
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) CEP(ctx context.Context, cep string) (*lookup.CEPResult, error) {
	args := m.Called(ctx, cep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lookup.CEPResult), args.Error(1)
}

func (m *MockRegistry) CNPJ(ctx context.Context, cnpj string) (*lookup.CNPJResult, error) {
	args := m.Called(ctx, cnpj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lookup.CNPJResult), args.Error(1)
}

func TestLookupService_CEP(t *testing.T) {
	registry := new(MockRegistry)
	svc := NewLookupService(registry, zap.NewNop())
	ctx := context.Background()
	registry.On("CEP", mock.Anything, "01310100").Return(&lookup.CEPResult{CEP: "01310100", City: "São Paulo"}, nil).Once()
	registry.On("CEP", mock.Anything, "99999999").Return(nil, lookup.ErrNotFound).Once()
	registry.On("CEP", mock.Anything, "70040010").Return(nil, fmt.Errorf("viacep: %w", lookup.ErrUnavailable)).Once()

	res, err := svc.CEP(ctx, "01310-100")
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", res.City)

	_, err = svc.CEP(ctx, "99999-999")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.CEP(ctx, "70040-010")
	assert.ErrorIs(t, err, shared.ErrUpstreamUnavailable)

	for _, bad := range []string{"123", "00000-000", "abc"} {
		_, err = svc.CEP(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidCEP, bad)
	}
	registry.AssertExpectations(t)
}

func TestLookupService_CNPJ(t *testing.T) {
	registry := new(MockRegistry)
	svc := NewLookupService(registry, zap.NewNop())
	ctx := context.Background()
	registry.On("CNPJ", mock.Anything, "11222333000181").Return(&lookup.CNPJResult{CNPJ: "11222333000181", LegalName: "Empresa Exemplo LTDA"}, nil).Once()

	res, err := svc.CNPJ(ctx, "11.222.333/0001-81")
	require.NoError(t, err)
	assert.Equal(t, "Empresa Exemplo LTDA", res.LegalName)

	_, err = svc.CNPJ(ctx, "11.222.333/0001-82")
	assert.ErrorIs(t, err, ErrInvalidCNPJ)

	_, err = svc.CNPJ(ctx, "11111111111111")
	assert.ErrorIs(t, err, ErrInvalidCNPJ)
	registry.AssertExpectations(t)
}
