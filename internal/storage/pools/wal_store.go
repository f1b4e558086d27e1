// Package pools persists created pool records in a WAL so the registry
// survives restarts.
package pools

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/swapcore/internal/domain"
)

const (
	DefaultDir   = "./wal/pools"
	segmentLimit = 100
	maxSegments  = 10

	poolKeyPrefix = "pool_"
)

// record is the persisted form of a pool. Addresses and the delegation
// proof are pure derivations, so only the identifying data is stored.
type record struct {
	AssetA    domain.AssetID `json:"asset_a"`
	AssetB    domain.AssetID `json:"asset_b"`
	Authority string         `json:"authority"`
	Salt      uint8          `json:"salt"`
}

// WALStore persists pool records in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.Mutex
}

// NewWALStore initializes a WAL-backed pool store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "pool_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init pool WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the pool record.
func (s *WALStore) Save(pool domain.Pool) error {
	if s == nil || s.wal == nil {
		return errors.New("pool store is not initialized")
	}

	rec := record{
		AssetA:    pool.AssetA,
		AssetB:    pool.AssetB,
		Authority: pool.Authority.Hex(),
		Salt:      pool.Salt,
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal pool record")
	}

	key := fmt.Sprintf("%s%s", poolKeyPrefix, pool.Pair().String())

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// LoadAll replays the WAL and rederives every stored pool.
func (s *WALStore) LoadAll() ([]domain.Pool, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("pool store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.Pool
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, poolKeyPrefix) {
			continue
		}
		var rec record
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			return nil, errors.Wrap(err, "decode pool record")
		}
		pair := domain.Pair{A: rec.AssetA, B: rec.AssetB}
		result = append(result, domain.NewPool(pair, common.HexToAddress(rec.Authority)))
	}

	return result, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("pool store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
