package output

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jabolina/go-faultlog/pkg/faultlog/types"
	bolt "go.etcd.io/bbolt"
)

const boltFileName = "faultlog.db"

// BoltSink is the Sink backed by a BoltDB bucket. Every replica
// has its own bucket and the lines are keyed by the bucket sequence,
// so the iteration order is the append order.
type BoltSink struct {
	db *bolt.DB

	bucket []byte

	// Only the sink that opened the database closes it.
	owner bool
}

// OpenBoltDB opens the database shared by the replicas of a cluster.
func OpenBoltDB(directory string) (*bolt.DB, error) {
	db, err := bolt.Open(filepath.Join(directory, boltFileName), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}
	return db, nil
}

// NewBoltSink creates the sink of the given replica on its own database
// file inside the directory.
func NewBoltSink(directory string, id types.ProcessID) (types.Sink, error) {
	db, err := bolt.Open(filepath.Join(directory, fmt.Sprintf("server%d.db", id)), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}
	sink, err := newBoltSink(db, id, true)
	if err != nil {
		db.Close()
		return nil, err
	}
	return sink, nil
}

// NewSharedBoltSink creates the sink of the given replica using a
// database opened with OpenBoltDB. Closing the sink keeps the database open.
func NewSharedBoltSink(db *bolt.DB, id types.ProcessID) (types.Sink, error) {
	return newBoltSink(db, id, false)
}

func newBoltSink(db *bolt.DB, id types.ProcessID, owner bool) (*BoltSink, error) {
	bucket := []byte(fmt.Sprintf("server%d", id))
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &BoltSink{db: db, bucket: bucket, owner: owner}, nil
}

// Implements the Sink interface.
// All lines are written in a single transaction.
func (b *BoltSink) Append(lines ...string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		for _, line := range lines {
			seq, err := bucket.NextSequence()
			if err != nil {
				return err
			}
			if err := bucket.Put(sequenceKey(seq), []byte(line)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Implements the Sink interface.
func (b *BoltSink) Lines() ([]string, error) {
	var lines []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).ForEach(func(_, v []byte) error {
			lines = append(lines, string(v))
			return nil
		})
	})
	return lines, err
}

// Implements the Sink interface.
func (b *BoltSink) Close() error {
	if !b.owner {
		return nil
	}
	return b.db.Close()
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
