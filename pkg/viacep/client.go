package viacep

// POSTAL CODE LOOKUP CLIENT

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var (
	ErrInvalidPostalCode = errors.New("viacep: postal code must have 8 digits")
	ErrNotFound          = errors.New("viacep: postal code not found")
)

type Address struct {
	PostalCode   string `json:"cep"`
	Street       string `json:"logradouro"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	IBGE         string `json:"ibge"`
	DDD          string `json:"ddd"`
}

// Line returns "street, neighborhood" skipping empty parts.
func (a Address) Line() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{a.Street, a.Neighborhood} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type response struct {
	Address
	// The service answers 200 with {"erro": true} (sometimes "true") for unknown codes.
	Erro any `json:"erro,omitempty"`
}

type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxElapsedTime time.Duration
	logger         *zap.Logger
}

func NewClient(baseURL string, timeout, maxElapsedTime time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxElapsedTime: maxElapsedTime,
		logger:         logger,
	}
}

// Lookup resolves a CEP to an address. Network failures and 5xx answers are
// retried until maxElapsedTime; "not found" and bad input are not.
func (c *Client) Lookup(ctx context.Context, postalCode string) (*Address, error) {
	const operation = "viacep.Lookup"

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, postalCode)
	if len(digits) != 8 {
		return nil, ErrInvalidPostalCode
	}

	var addr *Address

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = c.maxElapsedTime

	err := backoff.RetryNotify(
		func() error {
			a, err := c.fetch(ctx, digits)
			if err != nil {
				return err
			}
			addr = a
			return nil
		},
		backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			c.logger.Warn("ViaCEP lookup failed, retrying...",
				zap.String("cep", digits),
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	return addr, nil
}

func (c *Client) fetch(ctx context.Context, digits string) (*Address, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/%s/json/", c.baseURL, digits),
		nil,
	)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest:
		return nil, backoff.Permanent(ErrInvalidPostalCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}

	if isTrue(body.Erro) {
		return nil, backoff.Permanent(ErrNotFound)
	}

	return &body.Address, nil
}

func isTrue(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	}
	return false
}
