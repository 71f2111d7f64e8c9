package storage

import (
	"alcyxob/workout-progress/internal/telemetry/tracing"
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

// RedisBlobStore keeps blobs as plain string values without expiry.
type RedisBlobStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisBlobStore(client redis.Cmdable, prefix string) *RedisBlobStore {
	return &RedisBlobStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisBlobStore) Get(ctx context.Context, key string) (blob []byte, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redisBlobStore.get")
	span.SetAttributes(attribute.String("key", key))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	blob, err = s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return blob, nil
}

func (s *RedisBlobStore) Put(ctx context.Context, key string, blob []byte) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redisBlobStore.put")
	span.SetAttributes(attribute.String("key", key))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err = s.client.Set(ctx, s.prefix+key, string(blob), 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}
