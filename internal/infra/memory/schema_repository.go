package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"prepost-poll/internal/domain"
)

// SchemaLoader fetches the question schema from the poll backend.
type SchemaLoader interface {
	FetchSchema(ctx context.Context) (domain.Schema, error)
}

// SchemaRepository caches the schema with TTL to avoid refetching it on every page load.
type SchemaRepository struct {
	loader SchemaLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    *domain.Schema
	expiresAt time.Time
}

func NewSchemaRepository(loader SchemaLoader, ttl time.Duration) *SchemaRepository {
	return &SchemaRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *SchemaRepository) GetSchema(ctx context.Context) (domain.Schema, error) {
	if schema, ok := r.lookup(r.clock()); ok {
		return schema, nil
	}

	result, err, _ := r.sf.Do("schema", func() (interface{}, error) {
		now := r.clock()
		if schema, ok := r.lookup(now); ok {
			return schema, nil
		}

		schema, err := r.loader.FetchSchema(ctx)
		if err != nil {
			return domain.Schema{}, err
		}

		r.mu.Lock()
		r.cached = &schema
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return schema, nil
	})
	if err != nil {
		return domain.Schema{}, err
	}
	return result.(domain.Schema), nil
}

func (r *SchemaRepository) lookup(now time.Time) (domain.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cached != nil && r.expiresAt.After(now) {
		return *r.cached, true
	}
	return domain.Schema{}, false
}

// StaticSchemaLoader serves a fixed schema (useful for tests/demos).
type StaticSchemaLoader struct {
	schema domain.Schema
}

func NewStaticSchemaLoader(schema domain.Schema) *StaticSchemaLoader {
	return &StaticSchemaLoader{schema: schema}
}

func (l *StaticSchemaLoader) FetchSchema(context.Context) (domain.Schema, error) {
	return l.schema, nil
}

func (r *SchemaRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
