package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"mural-budget/internal/config"
)

var ErrLeadNotFound = errors.New("lead not found")

const statsCacheKey = "lead_stats"

// Cache is the slice of the Redis client the storage relies on.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
}

type PostgresStorage struct {
	db     *sqlx.DB
	cache  Cache
	logger *zap.Logger
}

func NewPostgresStorage(ctx context.Context, cfg config.DatabaseConfig, cache Cache, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = cfg.ConnectTimeout
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.Name))

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			if err = db.PingContext(ctx); err != nil {
				_ = db.Close()
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return NewWithDB(db, cache, logger), nil
}

// NewWithDB wraps an already opened connection.
func NewWithDB(db *sqlx.DB, cache Cache, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// DB exposes the raw handle for migrations.
func (s *PostgresStorage) DB() *sql.DB {
	return s.db.DB
}

func (s *PostgresStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const insertLeadQuery = `
	INSERT INTO leads (
		public_id, channel, chat_id,
		full_name, email, phone, cep, address, city, state,
		surface_type, custom_surface_type, surface_width, surface_height,
		art_series, preferred_styles, complexity, desired_deadline, photos, notes,
		distance_factor, estimate_min, estimate_final, estimate_max, precision_score,
		status, created_at, updated_at
	) VALUES (
		:public_id, :channel, :chat_id,
		:full_name, :email, :phone, :cep, :address, :city, :state,
		:surface_type, :custom_surface_type, :surface_width, :surface_height,
		:art_series, :preferred_styles, :complexity, :desired_deadline, :photos, :notes,
		:distance_factor, :estimate_min, :estimate_final, :estimate_max, :precision_score,
		:status, :created_at, :created_at
	)
	RETURNING id, created_at, updated_at
`

// SaveLead inserts the lead and fills in its generated id and timestamps.
func (s *PostgresStorage) SaveLead(ctx context.Context, lead *Lead) error {
	const operation = "storage.SaveLead"

	if lead.PublicID == uuid.Nil {
		lead.PublicID = uuid.New()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}

	query, args, err := sqlx.Named(insertLeadQuery, lead)
	if err != nil {
		return fmt.Errorf("%s: bind: %w", operation, err)
	}

	err = s.db.QueryRowxContext(ctx, s.db.Rebind(query), args...).
		Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: failed to save lead: %w", operation, err)
	}

	s.invalidateStats(ctx)
	return nil
}

func (s *PostgresStorage) GetLeadByID(ctx context.Context, id int64) (*Lead, error) {
	return s.getLead(ctx, `SELECT * FROM leads WHERE id = $1`, id)
}

func (s *PostgresStorage) GetLeadByPublicID(ctx context.Context, publicID uuid.UUID) (*Lead, error) {
	return s.getLead(ctx, `SELECT * FROM leads WHERE public_id = $1`, publicID)
}

func (s *PostgresStorage) getLead(ctx context.Context, query string, arg any) (*Lead, error) {
	var lead Lead
	err := s.db.GetContext(ctx, &lead, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return &lead, nil
}

// ListLeads returns the newest leads first. limit <= 0 means all.
func (s *PostgresStorage) ListLeads(ctx context.Context, limit int) ([]Lead, error) {
	var leads []Lead
	var err error
	if limit > 0 {
		err = s.db.SelectContext(ctx, &leads, `SELECT * FROM leads ORDER BY created_at DESC LIMIT $1`, limit)
	} else {
		err = s.db.SelectContext(ctx, &leads, `SELECT * FROM leads ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}
	return leads, nil
}

func (s *PostgresStorage) UpdateLeadStatus(ctx context.Context, id int64, status string) error {
	if !IsValidLeadStatus(status) {
		return fmt.Errorf("invalid lead status %q", status)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrLeadNotFound
	}

	s.invalidateStats(ctx)
	return nil
}

type LeadStatistics struct {
	TotalLeads       int            `db:"total_leads" json:"total_leads"`
	TotalEstimated   float64        `db:"total_estimated" json:"total_estimated"`
	TodayLeads       int            `db:"today_leads" json:"today_leads"`
	WeekLeads        int            `db:"week_leads" json:"week_leads"`
	MonthLeads       int            `db:"month_leads" json:"month_leads"`
	AveragePrecision float64        `db:"average_precision" json:"average_precision"`
	StatusCounts     map[string]int `db:"-" json:"status_counts"`
}

func (s *PostgresStorage) GetLeadStatistics(ctx context.Context) (*LeadStatistics, error) {
	// Try Redis first
	if cached, err := s.cache.Get(ctx, statsCacheKey); err == nil {
		var stats LeadStatistics
		if err := json.Unmarshal(cached, &stats); err == nil {
			return &stats, nil
		}
	}

	stats := &LeadStatistics{
		StatusCounts: make(map[string]int),
	}

	err := s.db.GetContext(ctx, stats, `
		SELECT
			COUNT(*) AS total_leads,
			COALESCE(SUM(estimate_final), 0) AS total_estimated,
			COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE) AS today_leads,
			COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE - INTERVAL '7 days') AS week_leads,
			COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE - INTERVAL '30 days') AS month_leads,
			COALESCE(AVG(precision_score), 0) AS average_precision
		FROM leads
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get lead totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.StatusCounts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status counts: %w", err)
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, statsCacheKey, data, time.Hour); err != nil {
			s.logger.Warn("Failed to cache lead statistics", zap.Error(err))
		}
	}

	return stats, nil
}

func (s *PostgresStorage) invalidateStats(ctx context.Context) {
	if err := s.cache.Del(ctx, statsCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate lead statistics cache", zap.Error(err))
	}
}

// CheckRateLimit counts one action for subject inside window and reports
// whether the limit is exceeded.
func (s *PostgresStorage) CheckRateLimit(ctx context.Context, subject, action string, limit int64, window time.Duration) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", action, subject)

	count, err := s.cache.Incr(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	// Set expiry if this is the first increment
	if count == 1 {
		if _, err := s.cache.Expire(ctx, key, window); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count > limit, nil
}
