// Package datapack caches external test data packs on local disk.
//
// A pack is a JSON array of test cases stored in object storage. Packs are
// cached zstd-compressed with a TTL so repeated submissions against the
// same problem do not re-download the case set.
package datapack

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"gavel/internal/model"
	"gavel/internal/storage"
	appErr "gavel/pkg/errors"
)

// maxPackBytes caps a decompressed pack; anything larger is rejected.
const maxPackBytes = 64 << 20

type cacheEntry struct {
	path      string
	hash      string
	expiresAt time.Time
}

// Cache manages local data pack caching.
type Cache struct {
	rootDir string
	ttl     time.Duration
	bucket  string
	storage storage.ObjectStorage

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewCache creates a data pack cache rooted at rootDir.
func NewCache(rootDir string, ttl time.Duration, bucket string, storageClient storage.ObjectStorage) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Cache{
		rootDir: rootDir,
		ttl:     ttl,
		bucket:  bucket,
		storage: storageClient,
		entries: make(map[string]*cacheEntry),
	}
}

// Get returns the test cases of the pack stored at objectKey.
// When wantHash is non-empty the pack's SHA-256 must match it.
func (c *Cache) Get(ctx context.Context, objectKey, wantHash string) ([]model.TestCase, error) {
	if objectKey == "" {
		return nil, appErr.ValidationError("test_data_key", "required")
	}
	if c.storage == nil {
		return nil, appErr.New(appErr.DataPackError).WithMessage("object storage is not configured")
	}
	if c.rootDir == "" {
		return nil, appErr.New(appErr.DataPackError).WithMessage("cache root is not configured")
	}

	if raw, ok := c.hitLocal(objectKey, wantHash); ok {
		return decodePack(raw)
	}

	raw, err := c.fetch(ctx, objectKey, wantHash)
	if err != nil {
		return nil, err
	}
	if err := c.writeLocal(objectKey, wantHash, raw); err != nil {
		// Cache write failure is not fatal; the pack is already in memory.
		return decodePack(raw)
	}
	return decodePack(raw)
}

func (c *Cache) hitLocal(key, wantHash string) ([]byte, bool) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && (time.Now().After(entry.expiresAt) || (wantHash != "" && entry.hash != wantHash)) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, false
	}

	file, err := os.Open(entry.path)
	if err != nil {
		return nil, false
	}
	defer file.Close()

	reader, err := zstd.NewReader(file)
	if err != nil {
		return nil, false
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, maxPackBytes+1))
	if err != nil || int64(len(raw)) > maxPackBytes {
		return nil, false
	}
	if wantHash != "" && packHash(raw) != strings.ToLower(wantHash) {
		return nil, false
	}
	return raw, true
}

func (c *Cache) fetch(ctx context.Context, key, wantHash string) ([]byte, error) {
	stat, err := c.storage.StatObject(ctx, c.bucket, key)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.StorageError, "stat data pack failed")
	}
	if stat.SizeBytes > maxPackBytes {
		return nil, appErr.Newf(appErr.DataPackError, "data pack too large: %d bytes", stat.SizeBytes)
	}

	reader, err := c.storage.GetObject(ctx, c.bucket, key)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.StorageError, "download data pack failed")
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, maxPackBytes+1))
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.StorageError, "read data pack failed")
	}
	if int64(len(raw)) > maxPackBytes {
		return nil, appErr.Newf(appErr.DataPackError, "data pack too large")
	}
	if wantHash != "" && packHash(raw) != strings.ToLower(wantHash) {
		return nil, appErr.New(appErr.DataPackCorrupted).WithMessage("data pack hash mismatch")
	}
	return raw, nil
}

func (c *Cache) writeLocal(key, hash string, raw []byte) error {
	if err := os.MkdirAll(c.rootDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(c.rootDir, packFileName(key))
	tmp := path + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return err
	}
	writer, err := zstd.NewWriter(file)
	if err != nil {
		file.Close()
		return err
	}
	if _, err := writer.Write(raw); err != nil {
		writer.Close()
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := writer.Close(); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry{
		path:      path,
		hash:      packHash(raw),
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}

func decodePack(raw []byte) ([]model.TestCase, error) {
	var cases []model.TestCase
	if err := json.Unmarshal(raw, &cases); err != nil {
		return nil, appErr.Wrapf(err, appErr.DataPackCorrupted, "decode data pack failed")
	}
	if len(cases) == 0 {
		return nil, appErr.New(appErr.DataPackCorrupted).WithMessage("data pack has no test cases")
	}
	return cases, nil
}

func packHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func packFileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16]) + ".json.zst"
}
