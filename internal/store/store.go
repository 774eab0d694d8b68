package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a lazily connected handle. The pool is created on first use and
// discarded after a connection-level failure, so the next call reconnects.
type Store struct {
	config *pgxpool.Config
	logger *slog.Logger

	mu   sync.Mutex
	pool *pgxpool.Pool
}

func New(databaseURL string, logger *slog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.ConnConfig.ConnectTimeout = 10 * time.Second
	return &Store{config: cfg, logger: logger}, nil
}

func (s *Store) acquire(ctx context.Context) (*pgxpool.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		return s.pool, nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, s.config.Copy())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	s.pool = pool
	return pool, nil
}

func (s *Store) invalidate(pool *pgxpool.Pool) {
	s.mu.Lock()
	if s.pool != pool {
		s.mu.Unlock()
		return
	}
	s.pool = nil
	s.mu.Unlock()
	go pool.Close()
}

// do runs fn against the current pool and drops the pool when fn fails
// with a connection-level error.
func (s *Store) do(ctx context.Context, fn func(*pgxpool.Pool) error) error {
	pool, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	err = fn(pool)
	if isConnectionError(err) {
		s.logger.Warn("resetting database pool", "error", err)
		s.invalidate(pool)
	}
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.do(ctx, func(pool *pgxpool.Pool) error {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		return nil
	})
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

var connectionErrorText = []string{
	"connection reset",
	"econnreset",
	"connection terminated",
	"socket disconnected",
	"conn closed",
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, text := range connectionErrorText {
		if strings.Contains(msg, text) {
			return true
		}
	}
	return false
}
