package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/catalog"
)

// ErrRescanInProgress is returned when a rescan is requested during another.
var ErrRescanInProgress = errors.New("rescan already in progress")

// Rescanner serializes catalog rescans from the API and the periodic loop.
type Rescanner struct {
	catalog *catalog.Catalog
	logger  *zap.Logger

	rescanMu sync.Mutex // prevents concurrent rescans

	// Current state
	scannedAt time.Time
	stateMu   sync.RWMutex
}

// RescanResult contains the result of a successful rescan.
type RescanResult struct {
	Demos     int       `json:"demos"`
	ScannedAt time.Time `json:"scanned_at"`
}

// NewRescanner creates a Rescanner.
func NewRescanner(cat *catalog.Catalog, logger *zap.Logger) *Rescanner {
	return &Rescanner{
		catalog:   cat,
		logger:    logger,
		scannedAt: time.Now(),
	}
}

// ScannedAt returns when the catalog was last scanned.
func (rs *Rescanner) ScannedAt() time.Time {
	rs.stateMu.RLock()
	defer rs.stateMu.RUnlock()
	return rs.scannedAt
}

// Rescan walks the demo directory again.
func (rs *Rescanner) Rescan() (*RescanResult, error) {
	if !rs.rescanMu.TryLock() {
		return nil, ErrRescanInProgress
	}
	defer rs.rescanMu.Unlock()

	n, err := rs.catalog.Rescan()
	if err != nil {
		return nil, err
	}

	rs.stateMu.Lock()
	rs.scannedAt = time.Now().UTC()
	scannedAt := rs.scannedAt
	rs.stateMu.Unlock()

	return &RescanResult{Demos: n, ScannedAt: scannedAt}, nil
}

// Run rescans every interval until ctx is cancelled.
func (rs *Rescanner) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rs.Rescan(); err != nil && !errors.Is(err, ErrRescanInProgress) {
				rs.logger.Warn("periodic rescan failed", zap.Error(err))
			}
		}
	}
}
