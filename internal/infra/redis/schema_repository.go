package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"prepost-poll/internal/domain"
)

// SchemaKey holds the cached schema document.
const SchemaKey = "poll:schema"

// SchemaLoader fetches the question schema from the poll backend.
type SchemaLoader interface {
	FetchSchema(ctx context.Context) (domain.Schema, error)
}

// SchemaRepository caches the schema JSON in Redis so every front-end instance shares
// one copy, and falls back to the loader on a miss.
type SchemaRepository struct {
	client *redis.Client
	loader SchemaLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewSchemaRepository(client *redis.Client, loader SchemaLoader, ttl time.Duration) *SchemaRepository {
	return &SchemaRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *SchemaRepository) GetSchema(ctx context.Context) (domain.Schema, error) {
	if schema, ok := r.cached(ctx); ok {
		return schema, nil
	}

	result, err, _ := r.sf.Do(SchemaKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if schema, ok := r.cached(ctx); ok {
			return schema, nil
		}

		schema, err := r.loader.FetchSchema(ctx)
		if err != nil {
			return domain.Schema{}, err
		}
		if data, err := json.Marshal(schema); err == nil {
			_ = r.client.Set(ctx, SchemaKey, data, r.ttlWithJitter()).Err()
		}
		return schema, nil
	})
	if err != nil {
		return domain.Schema{}, err
	}
	return result.(domain.Schema), nil
}

// cached treats an unreadable entry as a miss.
func (r *SchemaRepository) cached(ctx context.Context) (domain.Schema, bool) {
	data, err := r.client.Get(ctx, SchemaKey).Bytes()
	if err != nil {
		return domain.Schema{}, false
	}
	var schema domain.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return domain.Schema{}, false
	}
	return schema, true
}

func (r *SchemaRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
