package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"mural-budget/internal/budget"
	"mural-budget/internal/estimate"
	"mural-budget/pkg/redis"
)

type memoryCache struct {
	values   map[string][]byte
	counters map[string]int64
	expiries map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		values:   make(map[string][]byte),
		counters: make(map[string]int64),
		expiries: make(map[string]time.Duration),
	}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, redis.ErrNotFound
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	m.values[key] = data
	m.expiries[key] = ttl
	return nil
}

func (m *memoryCache) Del(_ context.Context, key string) error {
	delete(m.values, key)
	delete(m.counters, key)
	return nil
}

func (m *memoryCache) Incr(_ context.Context, key string) (int64, error) {
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memoryCache) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.expiries[key] = ttl
	return true, nil
}

func ptr[T any](v T) *T { return &v }

func sampleRequest() budget.ProjectRequest {
	deadline := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	return budget.ProjectRequest{
		FullName:        "Maria da Silva",
		Email:           "maria@example.com",
		Phone:           "(11) 98765-4321",
		PostalCode:      "01310-100",
		Address:         "Avenida Paulista, Bela Vista",
		City:            "São Paulo",
		State:           "SP",
		SurfaceType:     budget.SurfaceCeiling,
		SurfaceWidth:    ptr(4.0),
		SurfaceHeight:   ptr(3.0),
		ArtSeries:       "GM-013",
		PreferredStyles: []budget.Style{budget.Styles[0]},
		Complexity:      ptr(9),
		DesiredDeadline: &deadline,
		Photos:          []string{"a.jpg", "b.jpg"},
		Notes:           "Mural no teto da sala de estar",
	}
}

func sampleLead(t *testing.T) Lead {
	t.Helper()
	req := sampleRequest()
	est := estimate.ComputeEstimate(req, 1.0)
	require.NotNil(t, est)

	lead, err := NewLead(ChannelWeb, req, est, estimate.ComputePrecision(req))
	require.NoError(t, err)
	lead.ID = 42
	lead.CreatedAt = time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)
	return lead
}

func TestNewLead(t *testing.T) {
	lead := sampleLead(t)

	assert.NotEqual(t, uuid.Nil, lead.PublicID)
	assert.Equal(t, LeadStatusNew, lead.Status)
	assert.InDelta(t, 6240.0, lead.EstimateFinal, 0.001)
	assert.InDelta(t, 6240.0*0.85, lead.EstimateMin, 0.001)
	assert.InDelta(t, 6240.0*1.15, lead.EstimateMax, 0.001)
	assert.Equal(t, 1.0, lead.DistanceFactor)
	assert.Equal(t, 85, lead.Precision)
	assert.Equal(t, 2, lead.PhotoCount())
}

func TestNewLead_RequiresEstimate(t *testing.T) {
	_, err := NewLead(ChannelWeb, budget.ProjectRequest{}, nil, estimate.Precision{})
	assert.Error(t, err)
}

func TestNewLead_EmptyListsAreJSONArrays(t *testing.T) {
	req := budget.ProjectRequest{SurfaceType: budget.SurfaceInternalWall}
	lead, err := NewLead(ChannelTelegram, req, estimate.ComputeEstimate(req, 1.0), estimate.Precision{})
	require.NoError(t, err)

	assert.Equal(t, "[]", string(lead.Photos))
	assert.Equal(t, "[]", string(lead.PreferredStyles))
	assert.Zero(t, lead.PhotoCount())
}

func TestLeadRequestRoundTrip(t *testing.T) {
	req := sampleRequest()
	lead := sampleLead(t)

	got := lead.Request()
	assert.Equal(t, req.FullName, got.FullName)
	assert.Equal(t, req.SurfaceType, got.SurfaceType)
	assert.Equal(t, req.PreferredStyles, got.PreferredStyles)
	assert.Equal(t, req.Photos, got.Photos)
	assert.Equal(t, *req.Complexity, *got.Complexity)
	assert.Equal(t, estimate.ComputeEstimate(req, 1.0).FinalValue, estimate.ComputeEstimate(got, 1.0).FinalValue)
}

func TestLeadStatusLabel(t *testing.T) {
	assert.True(t, IsValidLeadStatus(LeadStatusQuoted))
	assert.False(t, IsValidLeadStatus("processing"))
	assert.Equal(t, "Fechado", LeadStatusLabel(LeadStatusClosed))
	assert.Equal(t, "unknown", LeadStatusLabel("unknown"))
}

func TestBuildLeadWorkbook(t *testing.T) {
	lead := sampleLead(t)

	f, err := BuildLeadWorkbook(lead)
	require.NoError(t, err)

	data, err := WorkbookBytes(f)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(leadSheet)
	require.NoError(t, err)

	values := make(map[string]string)
	for _, row := range rows {
		if len(row) == 2 {
			values[row[0]] = row[1]
		}
	}
	assert.Equal(t, "42", values["Lead"])
	assert.Equal(t, "Maria da Silva", values["Nome"])
	assert.Equal(t, "Teto/Laje", values["Superfície"])
	assert.Equal(t, "15/03/2025", values["Prazo Desejado"])
	assert.Equal(t, "2", values["Fotos"])
	assert.Equal(t, "85", values["Precisão (%)"])
}

func TestBuildLeadsWorkbook(t *testing.T) {
	first := sampleLead(t)
	second := sampleLead(t)
	second.ID = 43
	second.SurfaceWidth = nil
	second.Status = LeadStatusContacted

	f, err := BuildLeadsWorkbook([]Lead{first, second})
	require.NoError(t, err)

	data, err := WorkbookBytes(f)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(leadsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, leadsHeaders, rows[0])
	assert.Equal(t, "42", rows[1][0])
	assert.Equal(t, "43", rows[2][0])
	assert.Equal(t, "", rows[2][10])
	assert.Equal(t, "Contatado", rows[2][21])
}

func TestWriteLeadReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	lead := sampleLead(t)

	path, err := WriteLeadReport(dir, lead)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "orcamento_42_20250110_1430.xlsx"), path)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestCheckRateLimit(t *testing.T) {
	cache := newMemoryCache()
	s := NewWithDB(nil, cache, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		limited, err := s.CheckRateLimit(ctx, "10.0.0.1", "lead", 3, time.Hour)
		require.NoError(t, err)
		assert.False(t, limited, "attempt %d", i+1)
	}

	limited, err := s.CheckRateLimit(ctx, "10.0.0.1", "lead", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, limited)

	limited, err = s.CheckRateLimit(ctx, "10.0.0.2", "lead", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, limited)

	assert.Equal(t, time.Hour, cache.expiries["ratelimit:lead:10.0.0.1"])
}

func TestGetLeadStatistics_FromCache(t *testing.T) {
	cache := newMemoryCache()
	cached := LeadStatistics{TotalLeads: 7, StatusCounts: map[string]int{LeadStatusNew: 7}}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	cache.values[statsCacheKey] = data

	s := NewWithDB(nil, cache, zap.NewNop())
	stats, err := s.GetLeadStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalLeads)
	assert.Equal(t, 7, stats.StatusCounts[LeadStatusNew])
}

func TestMigrations_EmbeddedLeadsSchema(t *testing.T) {
	entries, err := migrationsFS.ReadDir(migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	data, err := migrationsFS.ReadFile(migrationsDir + "/" + entries[0].Name())
	require.NoError(t, err)
	sql := string(data)
	assert.Contains(t, sql, "-- +goose Up")
	assert.Contains(t, sql, "-- +goose Down")
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS leads")
	assert.Contains(t, sql, "precision_score")
}
