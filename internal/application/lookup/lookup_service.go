// Package lookup validates postal codes and company numbers before asking
// the public registries about them.
package lookup

import (
	"context"
	"errors"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/compia/backend/internal/infrastructure/lookup"
	"go.uber.org/zap"
)

var (
	ErrInvalidCEP  = shared.NewDomainError("INVALID_CEP", "CEP must have 8 digits")
	ErrInvalidCNPJ = shared.NewDomainError("INVALID_CNPJ", "CNPJ is not valid")
)

// Registry answers CEP and CNPJ queries with bare digits
type Registry interface {
	CEP(ctx context.Context, cep string) (*lookup.CEPResult, error)
	CNPJ(ctx context.Context, cnpj string) (*lookup.CNPJResult, error)
}

// LookupService handles the public lookup endpoints
type LookupService struct {
	registry Registry
	logger   *zap.Logger
}

// NewLookupService creates a new lookup service
func NewLookupService(registry Registry, logger *zap.Logger) *LookupService {
	return &LookupService{registry: registry, logger: logger}
}

// CEP resolves a postal code in any common notation
func (s *LookupService) CEP(ctx context.Context, raw string) (*lookup.CEPResult, error) {
	cep, err := valueobject.NewCEP(raw)
	if err != nil {
		return nil, ErrInvalidCEP
	}
	res, err := s.registry.CEP(ctx, cep.String())
	if err != nil {
		return nil, s.mapError(err, "cep", cep.String())
	}
	return res, nil
}

// CNPJ resolves a company after checking its check digits
func (s *LookupService) CNPJ(ctx context.Context, raw string) (*lookup.CNPJResult, error) {
	cnpj, err := valueobject.NewCNPJ(raw)
	if err != nil {
		return nil, shared.NewDomainError(ErrInvalidCNPJ.Code, err.Error())
	}
	res, err := s.registry.CNPJ(ctx, cnpj.String())
	if err != nil {
		return nil, s.mapError(err, "cnpj", cnpj.String())
	}
	return res, nil
}

func (s *LookupService) mapError(err error, kind, value string) error {
	switch {
	case errors.Is(err, lookup.ErrNotFound):
		return shared.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		s.logger.Warn("Registry lookup failed",
			zap.String("kind", kind),
			zap.String("value", value),
			zap.Error(err))
		return shared.ErrUpstreamUnavailable
	}
}
