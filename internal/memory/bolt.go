package memory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/yoockh/bikeshop-agent/internal/conversation"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("customer_memory")

// BoltMemory keeps records in a local bbolt file.
type BoltMemory struct {
	db  *bolt.DB
	ttl time.Duration // zero keeps records forever
	now func() time.Time
}

var _ Memory = (*BoltMemory)(nil)

func OpenBolt(path string, ttl time.Duration) (*BoltMemory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltMemory{db: db, ttl: ttl, now: time.Now}, nil
}

func (m *BoltMemory) Recall(_ context.Context, userID string) (string, error) {
	var rec Record
	found := false
	err := m.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(userID))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &rec); err != nil {
			// malformed entries read as empty
			return nil
		}
		found = true
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found || rec.Summary == "" {
		return "", ErrNoMemory
	}
	if m.ttl > 0 && m.now().Sub(rec.UpdatedAt) > m.ttl {
		return "", ErrNoMemory
	}
	return rec.Summary, nil
}

func (m *BoltMemory) Save(_ context.Context, userID string, messages []conversation.Message) error {
	summary := Summarize(messages)
	if userID == "" || summary == "" {
		return nil
	}
	enc, err := json.Marshal(Record{Summary: summary, UpdatedAt: m.now().UTC()})
	if err != nil {
		return err
	}
	return m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(userID), enc)
	})
}

func (m *BoltMemory) Close() error { return m.db.Close() }
