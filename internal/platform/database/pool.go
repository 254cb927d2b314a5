package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vaultflow/internal/platform/config"
)

var (
	dbOpenConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vaultflow_db_open_connections",
		Help: "Number of established database connections",
	})
	dbInUseConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vaultflow_db_in_use_connections",
		Help: "Number of database connections currently in use",
	})
	dbWaitCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vaultflow_db_wait_count",
		Help: "Total number of connections waited for",
	})
)

// Pool wraps a *sql.DB with health checking capabilities.
type Pool struct {
	db *sql.DB
}

// New opens and pings a pgx-backed pool. Returns nil when no URL is configured.
func New(cfg config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{db: db}, nil
}

// DB returns the underlying *sql.DB for query operations.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Health checks if the database is reachable.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("database not configured")
	}
	return p.db.PingContext(ctx)
}

// Close closes the database connection pool.
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// RecordPoolStats publishes connection pool gauges. Called periodically from main.
func (p *Pool) RecordPoolStats() {
	if p == nil || p.db == nil {
		return
	}
	stats := p.db.Stats()
	dbOpenConns.Set(float64(stats.OpenConnections))
	dbInUseConns.Set(float64(stats.InUse))
	dbWaitCount.Set(float64(stats.WaitCount))
}
