package datapack

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"testing"
	"time"

	"gavel/internal/model"
	"gavel/internal/storage"
	appErr "gavel/pkg/errors"
)

type fakeStorage struct {
	objects map[string][]byte
	gets    int
	stats   int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f.gets++
	raw, ok := f.objects[key]
	if !ok {
		return nil, appErr.New(appErr.NotFound)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *fakeStorage) StatObject(ctx context.Context, bucket, key string) (storage.ObjectStat, error) {
	f.stats++
	raw, ok := f.objects[key]
	if !ok {
		return storage.ObjectStat{}, appErr.New(appErr.NotFound)
	}
	return storage.ObjectStat{SizeBytes: int64(len(raw))}, nil
}

func packBytes(t *testing.T, cases []model.TestCase) []byte {
	t.Helper()
	raw, err := json.Marshal(cases)
	if err != nil {
		t.Fatalf("marshal pack: %v", err)
	}
	return raw
}

func hashOf(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func TestCacheFetchAndDecode(t *testing.T) {
	store := newFakeStorage()
	raw := packBytes(t, []model.TestCase{
		{Input: "1", ExpectedOutput: "1"},
		{Input: "2", ExpectedOutput: "4"},
	})
	store.objects["p1/tests.json"] = raw

	cache := NewCache(t.TempDir(), time.Minute, "judge-data", store)
	cases, err := cache.Get(context.Background(), "p1/tests.json", hashOf(raw))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(cases) != 2 || cases[1].ExpectedOutput != "4" {
		t.Errorf("decoded cases = %+v", cases)
	}
}

func TestCacheHitSkipsDownload(t *testing.T) {
	store := newFakeStorage()
	raw := packBytes(t, []model.TestCase{{Input: "1", ExpectedOutput: "1"}})
	store.objects["p1/tests.json"] = raw

	cache := NewCache(t.TempDir(), time.Minute, "judge-data", store)
	ctx := context.Background()
	if _, err := cache.Get(ctx, "p1/tests.json", ""); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if _, err := cache.Get(ctx, "p1/tests.json", ""); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if store.gets != 1 {
		t.Errorf("downloads = %d, want 1 (second get served from cache)", store.gets)
	}
}

func TestCacheHashMismatch(t *testing.T) {
	store := newFakeStorage()
	raw := packBytes(t, []model.TestCase{{Input: "1", ExpectedOutput: "1"}})
	store.objects["p1/tests.json"] = raw

	cache := NewCache(t.TempDir(), time.Minute, "judge-data", store)
	_, err := cache.Get(context.Background(), "p1/tests.json", hashOf([]byte("other")))
	if !appErr.Is(err, appErr.DataPackCorrupted) {
		t.Errorf("err = %v, want DataPackCorrupted", err)
	}
}

func TestCacheRejectsMalformedPack(t *testing.T) {
	store := newFakeStorage()
	store.objects["bad.json"] = []byte("{not an array")

	cache := NewCache(t.TempDir(), time.Minute, "judge-data", store)
	if _, err := cache.Get(context.Background(), "bad.json", ""); !appErr.Is(err, appErr.DataPackCorrupted) {
		t.Errorf("err = %v, want DataPackCorrupted", err)
	}
}

func TestCacheRejectsEmptyPack(t *testing.T) {
	store := newFakeStorage()
	store.objects["empty.json"] = []byte("[]")

	cache := NewCache(t.TempDir(), time.Minute, "judge-data", store)
	if _, err := cache.Get(context.Background(), "empty.json", ""); !appErr.Is(err, appErr.DataPackCorrupted) {
		t.Errorf("err = %v, want DataPackCorrupted", err)
	}
}

func TestCacheMissingKey(t *testing.T) {
	cache := NewCache(t.TempDir(), time.Minute, "judge-data", newFakeStorage())
	if _, err := cache.Get(context.Background(), "", ""); err == nil {
		t.Error("empty object key should be rejected")
	}
}

func TestCacheWithoutStorage(t *testing.T) {
	cache := NewCache(t.TempDir(), time.Minute, "judge-data", nil)
	if _, err := cache.Get(context.Background(), "p1/tests.json", ""); !appErr.Is(err, appErr.DataPackError) {
		t.Error("unconfigured storage should be a data pack error")
	}
}
