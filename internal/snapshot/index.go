package snapshot

import (
	"encoding/json"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// indexBucket holds repoID -> {snapshotID -> created_at_utc} as JSON,
// keyed by repoID. It is a read-through cache only: List always scans the
// snapshot directory and rewrites the index from that scan when the index
// is stale or missing, so a corrupt or absent bbolt file never affects
// correctness, only how often the index is rewritten.
var indexBucket = []byte("snapshot_index")

func indexPath(dataDir string) string {
	return filepath.Join(dataDir, "snapshots", "index.bolt")
}

// cachedTimestamps reads the cached repoID -> {snapshotID: created_at_utc}
// map; any failure (missing file, missing bucket, corrupt value) yields an
// empty map rather than an error, since the cache is never authoritative.
func cachedTimestamps(dataDir, repoID string) map[string]string {
	db, err := bolt.Open(indexPath(dataDir), 0o644, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return map[string]string{}
	}
	defer db.Close()

	out := map[string]string{}
	_ = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(indexBucket)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(repoID))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &out)
	})
	return out
}

// updateCache best-effort refreshes the cached snapshotID -> created_at_utc
// map for repoID. Write failures are swallowed: the directory scan remains
// the source of truth, so a failed cache write never surfaces as an
// operation failure.
func updateCache(dataDir, repoID string, timestamps map[string]string) {
	db, err := bolt.Open(indexPath(dataDir), 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return
	}
	defer db.Close()

	raw, err := json.Marshal(timestamps)
	if err != nil {
		return
	}

	_ = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(indexBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(repoID), raw)
	})
}
