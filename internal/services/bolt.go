package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fitstack/coach-web-ui/internal/models"
	bolt "go.etcd.io/bbolt"
)

// BoltDB implements the Snapshotter interface using a BoltDB backend. The
// whole conversation collection is written as one ordered snapshot, so a
// restart restores conversations in exactly the order they were last saved.
type BoltDB struct {
	db *bolt.DB
}

const conversationsBucket = "conversations"

// NewBoltDB creates a new BoltDB instance with the specified file path. It
// initializes the database with the required bucket and returns an error if
// the database cannot be opened or initialized. The database file is created
// with 0600 permissions if it doesn't exist.
func NewBoltDB(path string) (BoltDB, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return BoltDB{}, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(conversationsBucket))
		return err
	})

	return BoltDB{db: db}, err
}

// Save replaces the stored snapshot with the given collection. Keys are
// zero-padded positions so that Load walks the bucket back in collection
// order.
func (b BoltDB) Save(_ context.Context, conversations []models.Conversation) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(conversationsBucket)); err != nil {
			return fmt.Errorf("failed to reset snapshot bucket: %w", err)
		}
		bkt, err := tx.CreateBucket([]byte(conversationsBucket))
		if err != nil {
			return fmt.Errorf("failed to create snapshot bucket: %w", err)
		}

		for i, conversation := range conversations {
			v, err := json.Marshal(conversation)
			if err != nil {
				return fmt.Errorf("failed to marshal conversation: %w", err)
			}
			if err := bkt.Put([]byte(fmt.Sprintf("%08d", i)), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load retrieves the stored conversation collection in saved order. A missing
// or empty bucket yields an empty collection, not an error.
func (b BoltDB) Load(context.Context) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(conversationsBucket))
		if bkt == nil {
			return nil
		}

		return bkt.ForEach(func(_, v []byte) error {
			var conversation models.Conversation
			if err := json.Unmarshal(v, &conversation); err != nil {
				return fmt.Errorf("failed to unmarshal conversation: %w", err)
			}
			conversations = append(conversations, conversation)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// Close releases the underlying database file.
func (b BoltDB) Close() error {
	return b.db.Close()
}
