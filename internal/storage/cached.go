package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

// CachedBlobStore is a read-through cache in front of another BlobStore.
// Put writes through and drops the cached entry.
type CachedBlobStore struct {
	next          BlobStore
	cache         *freecache.Cache
	expireSeconds int

	// A miss only fills the cache if no Put completed while it was reading.
	mu         sync.Mutex
	generation uint64
}

// NewCachedBlobStore wraps next with a cache of cacheSize bytes. A ttl of 0 keeps entries until evicted.
func NewCachedBlobStore(next BlobStore, cacheSize int, ttl time.Duration) *CachedBlobStore {
	return &CachedBlobStore{
		next:          next,
		cache:         freecache.NewCache(cacheSize),
		expireSeconds: int(ttl.Seconds()),
	}
}

func (s *CachedBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if blob, err := s.cache.Get([]byte(key)); err == nil {
		log.Tracef("blob %s found in cache", key)
		return blob, nil
	}

	s.mu.Lock()
	startGen := s.generation
	s.mu.Unlock()

	blob, err := s.next.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrBlobNotFound) {
			log.Debugf("blob %s: backing store get failed: %s", key, err)
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != startGen {
		log.Tracef("blob %s changed while reading, not caching", key)
		return blob, nil
	}
	if err := s.cache.Set([]byte(key), blob, s.expireSeconds); err != nil {
		log.Errorf("failed to cache blob %s: %s", key, err)
	}
	return blob, nil
}

func (s *CachedBlobStore) Put(ctx context.Context, key string, blob []byte) error {
	if err := s.next.Put(ctx, key, blob); err != nil {
		return err
	}

	s.mu.Lock()
	s.generation++
	s.cache.Del([]byte(key))
	s.mu.Unlock()
	return nil
}

// Stats reports cache hits and misses since creation.
func (s *CachedBlobStore) Stats() (hits, misses int64) {
	return s.cache.HitCount(), s.cache.MissCount()
}
