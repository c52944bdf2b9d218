package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tidwall/buntdb"

	"spatialgrid/internal/config"
	"spatialgrid/internal/service/query"
	"spatialgrid/internal/util"
)

const resultKeyPrefix = "result"

// ResultStore keeps query results in an embedded buntdb database. It serves
// saved results when no Redis server is configured.
type ResultStore struct {
	path string
	db   *buntdb.DB
	ttl  time.Duration
}

// NewResultStore opens the database at path, ":memory:" keeps it in memory only
func NewResultStore(path string, ttl time.Duration) (*ResultStore, error) {
	if ttl <= 0 {
		ttl = config.DefaultResultTTL
	}

	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening result store %s: %w", path, err)
	}

	log.Printf("Result store opened at %s", path)
	return &ResultStore{path: path, db: db, ttl: ttl}, nil
}

// SaveResult stores result under a new key "result:<kind>:<id>" and returns the key
func (s *ResultStore) SaveResult(_ context.Context, kind string, result interface{}) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encoding %s result: %w", kind, err)
	}

	key := util.NewKey(resultKeyPrefix, kind)
	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(data), &buntdb.SetOptions{Expires: true, TTL: s.ttl})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("saving %s result: %w", kind, err)
	}

	log.Printf("Saved %s result to %s as %s (%d bytes)", kind, s.path, key, len(data))
	return key, nil
}

// GetResult returns the JSON document stored under key
func (s *ResultStore) GetResult(_ context.Context, key string) ([]byte, error) {
	if !strings.HasPrefix(key, resultKeyPrefix+":") {
		return nil, fmt.Errorf("%w: %s", query.ErrResultNotFound, key)
	}

	var data string
	err := s.db.View(func(tx *buntdb.Tx) error {
		var err error
		data, err = tx.Get(key)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", query.ErrResultNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("loading result %s: %w", key, err)
	}
	return []byte(data), nil
}

// Close flushes and closes the database
func (s *ResultStore) Close() error {
	log.Println("Closing result store...")
	return s.db.Close()
}
