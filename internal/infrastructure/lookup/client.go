// Package lookup proxies the public CEP and CNPJ registries (ViaCEP and BrasilAPI).
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/compia/backend/internal/infrastructure/config"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("lookup: not found")
	ErrUnavailable = errors.New("lookup: provider unavailable")
)

// CEPResult is a postal code resolved to an address
type CEPResult struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	IBGE         string `json:"ibge,omitempty"`
	Source       string `json:"source"`
}

// CNPJResult is the public registry entry of a company
type CNPJResult struct {
	CNPJ         string `json:"cnpj"`
	LegalName    string `json:"legal_name"`
	TradeName    string `json:"trade_name,omitempty"`
	Status       string `json:"status"`
	OpenedAt     string `json:"opened_at,omitempty"`
	MainActivity string `json:"main_activity,omitempty"`
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	CEP          string `json:"cep,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

// Client queries the providers with retry and caches successful answers.
// Inputs must already be validated and reduced to digits.
type Client struct {
	http         *http.Client
	viaCEPURL    string
	brasilAPIURL string
	maxRetries   uint64
	cache        *gocache.Cache
	logger       *zap.Logger
	newBackOff   func() backoff.BackOff
}

// NewClient creates a lookup client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg config.LookupConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Client{
		http:         httpClient,
		viaCEPURL:    strings.TrimRight(cfg.ViaCEPURL, "/"),
		brasilAPIURL: strings.TrimRight(cfg.BrasilAPIURL, "/"),
		maxRetries:   cfg.MaxRetries,
		cache:        gocache.New(ttl, ttl/2),
		logger:       logger.Named("lookup"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
}

type viaCEPResponse struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	IBGE         string `json:"ibge"`
	// ViaCEP answers {"erro": true}, older mirrors {"erro": "true"}
	Erro any `json:"erro"`
}

type brasilAPICEPResponse struct {
	CEP          string `json:"cep"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
}

type brasilAPICNPJResponse struct {
	CNPJ         string `json:"cnpj"`
	LegalName    string `json:"razao_social"`
	TradeName    string `json:"nome_fantasia"`
	Status       string `json:"descricao_situacao_cadastral"`
	OpenedAt     string `json:"data_inicio_atividade"`
	MainActivity string `json:"cnae_fiscal_descricao"`
	Street       string `json:"logradouro"`
	Number       string `json:"numero"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"municipio"`
	State        string `json:"uf"`
	CEP          string `json:"cep"`
	Phone        string `json:"ddd_telefone_1"`
	Email        string `json:"email"`
}

// CEP resolves a postal code. ViaCEP is asked first; BrasilAPI is used when
// ViaCEP is unavailable. A definitive "unknown" from ViaCEP is not retried elsewhere.
func (c *Client) CEP(ctx context.Context, cep string) (*CEPResult, error) {
	key := "cep:" + cep
	if v, ok := c.cache.Get(key); ok {
		res := *v.(*CEPResult)
		return &res, nil
	}

	res, err := c.viaCEP(ctx, cep)
	if err != nil && !errors.Is(err, ErrNotFound) && ctx.Err() == nil {
		c.logger.Warn("ViaCEP unavailable, falling back to BrasilAPI", zap.String("cep", cep), zap.Error(err))
		res, err = c.brasilAPICEP(ctx, cep)
	}
	if err != nil {
		return nil, err
	}

	c.cache.SetDefault(key, res)
	out := *res
	return &out, nil
}

func (c *Client) viaCEP(ctx context.Context, cep string) (*CEPResult, error) {
	var body viaCEPResponse
	if err := c.getJSON(ctx, c.viaCEPURL+"/"+cep+"/json/", &body); err != nil {
		return nil, err
	}
	if isTruthy(body.Erro) {
		return nil, ErrNotFound
	}
	return &CEPResult{
		CEP:          cep,
		Street:       body.Street,
		Complement:   body.Complement,
		Neighborhood: body.Neighborhood,
		City:         body.City,
		State:        body.State,
		IBGE:         body.IBGE,
		Source:       "viacep",
	}, nil
}

func (c *Client) brasilAPICEP(ctx context.Context, cep string) (*CEPResult, error) {
	var body brasilAPICEPResponse
	if err := c.getJSON(ctx, c.brasilAPIURL+"/cep/v1/"+cep, &body); err != nil {
		return nil, err
	}
	return &CEPResult{
		CEP:          cep,
		Street:       body.Street,
		Neighborhood: body.Neighborhood,
		City:         body.City,
		State:        body.State,
		Source:       "brasilapi",
	}, nil
}

// CNPJ resolves a company registration number through BrasilAPI
func (c *Client) CNPJ(ctx context.Context, cnpj string) (*CNPJResult, error) {
	key := "cnpj:" + cnpj
	if v, ok := c.cache.Get(key); ok {
		res := *v.(*CNPJResult)
		return &res, nil
	}

	var body brasilAPICNPJResponse
	if err := c.getJSON(ctx, c.brasilAPIURL+"/cnpj/v1/"+cnpj, &body); err != nil {
		return nil, err
	}
	res := &CNPJResult{
		CNPJ:         cnpj,
		LegalName:    body.LegalName,
		TradeName:    body.TradeName,
		Status:       body.Status,
		OpenedAt:     body.OpenedAt,
		MainActivity: body.MainActivity,
		Street:       body.Street,
		Number:       body.Number,
		Complement:   body.Complement,
		Neighborhood: body.Neighborhood,
		City:         body.City,
		State:        body.State,
		CEP:          body.CEP,
		Phone:        body.Phone,
		Email:        body.Email,
	}
	c.cache.SetDefault(key, res)
	out := *res
	return &out, nil
}

// getJSON GETs url and decodes the body into out. 400 and 404 map to
// ErrNotFound. 429, 5xx and transport errors are retried; any other 4xx
// fails at once as ErrUnavailable.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "compia-backend")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
			// both providers answer 400 for well-formed but unknown documents
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s returned %d", ErrUnavailable, req.URL.Host, resp.StatusCode)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("%w: %s returned %d", ErrUnavailable, req.URL.Host, resp.StatusCode))
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: malformed response from %s", ErrUnavailable, req.URL.Host))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	err := backoff.Retry(op, policy)
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func isTruthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	}
	return false
}
