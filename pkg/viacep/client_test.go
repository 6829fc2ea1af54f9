package viacep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(url string) *Client {
	return NewClient(url, time.Second, 2*time.Second, zap.NewNop())
}

func TestLookup_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/01310100/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"cep": "01310-100",
			"logradouro": "Avenida Paulista",
			"complemento": "de 612 a 1510 - lado par",
			"bairro": "Bela Vista",
			"localidade": "São Paulo",
			"uf": "SP",
			"ibge": "3550308",
			"ddd": "11"
		}`))
	}))
	defer srv.Close()

	addr, err := newTestClient(srv.URL).Lookup(context.Background(), "01310-100")
	require.NoError(t, err)

	assert.Equal(t, "Avenida Paulista", addr.Street)
	assert.Equal(t, "São Paulo", addr.City)
	assert.Equal(t, "SP", addr.State)
	assert.Equal(t, "Avenida Paulista, Bela Vista", addr.Line())
}

func TestLookup_NotFound(t *testing.T) {
	for _, body := range []string{`{"erro": true}`, `{"erro": "true"}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := newTestClient(srv.URL).Lookup(context.Background(), "99999999")
		assert.ErrorIs(t, err, ErrNotFound)
		srv.Close()
	}
}

func TestLookup_InvalidPostalCode(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Lookup(context.Background(), "0131-01")
	assert.ErrorIs(t, err, ErrInvalidPostalCode)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestLookup_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"cep": "20040-020", "localidade": "Rio de Janeiro", "uf": "RJ"}`))
	}))
	defer srv.Close()

	addr, err := newTestClient(srv.URL).Lookup(context.Background(), "20040020")
	require.NoError(t, err)
	assert.Equal(t, "Rio de Janeiro", addr.City)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestLookup_BadRequestIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Lookup(context.Background(), "00000000")
	assert.ErrorIs(t, err, ErrInvalidPostalCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLookup_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, 300*time.Millisecond, zap.NewNop())
	_, err := client.Lookup(context.Background(), "01310100")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
