// Package transfers journals applied transfer batches for audit.
package transfers

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/swapcore/internal/domain"
)

const (
	DefaultDir   = "./wal/transfers"
	segmentLimit = 1000
	maxSegments  = 100

	batchKeyPrefix = "batch_"
)

// Leg is one applied transfer inside a batch.
type Leg struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// Record is one applied batch: both legs of a swap, or both legs of a
// deposit, written only after the ledger committed them.
type Record struct {
	ID   string    `json:"id"`
	Kind string    `json:"kind"`
	Pair string    `json:"pair"`
	Legs []Leg     `json:"legs"`
	Time time.Time `json:"time"`
}

// Journal is a WAL-backed audit log of applied batches.
type Journal struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// NewJournal initializes the WAL journal.
func NewJournal(dir string) (*Journal, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "transfer_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init transfer journal WAL")
	}

	return &Journal{wal: wal}, nil
}

// Append records an applied batch and returns its id.
func (j *Journal) Append(kind string, pair domain.Pair, legs []Leg) (string, error) {
	if j == nil || j.wal == nil {
		return "", errors.New("transfer journal is not initialized")
	}

	rec := Record{
		ID:   uuid.New().String(),
		Kind: kind,
		Pair: pair.String(),
		Legs: legs,
		Time: time.Now().UTC(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", errors.Wrap(err, "marshal transfer record")
	}

	key := fmt.Sprintf("%s%s", batchKeyPrefix, rec.ID)

	j.mu.Lock()
	defer j.mu.Unlock()

	nextIndex := j.wal.CurrentIndex() + 1
	if err := j.wal.Write(nextIndex, key, payload); err != nil {
		return "", errors.Wrap(err, "write transfer record")
	}
	return rec.ID, nil
}

// Close closes the underlying WAL.
func (j *Journal) Close() error {
	if j == nil || j.wal == nil {
		return errors.New("transfer journal is not initialized")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	return j.wal.Close()
}
