package prompt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ashureev/hrdesk/internal/domain"
	"github.com/ashureev/hrdesk/internal/role"
	"golang.org/x/sync/singleflight"
)

// SchemaSource reads the schema metadata tables.
type SchemaSource interface {
	SchemaTables(ctx context.Context) ([]domain.TableInfo, error)
	Relationships(ctx context.Context) ([]domain.Relationship, error)
}

// SchemaCache memoises the enhanced schema text for ttl. Concurrent misses
// share a single load.
type SchemaCache struct {
	src   SchemaSource
	hints role.SchemaHints
	ttl   time.Duration
	now   func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	text    string
	expires time.Time
}

// NewSchemaCache creates a cache. A non-positive ttl disables caching.
func NewSchemaCache(src SchemaSource, hints role.SchemaHints, ttl time.Duration) *SchemaCache {
	return &SchemaCache{src: src, hints: hints, ttl: ttl, now: time.Now}
}

// Enhanced returns the enhanced schema description.
func (c *SchemaCache) Enhanced(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.text != "" && c.now().Before(c.expires) {
		text := c.text
		c.mu.RUnlock()
		return text, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("schema", func() (interface{}, error) {
		tables, err := c.src.SchemaTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("load schema tables: %w", err)
		}
		rels, err := c.src.Relationships(ctx)
		if err != nil {
			return nil, fmt.Errorf("load relationships: %w", err)
		}

		text := EnhancedSchema(tables, rels, c.hints)
		// An uninitialised schema is not cached so a refresh shows up at once.
		if c.ttl > 0 && len(tables) > 0 {
			c.mu.Lock()
			c.text = text
			c.expires = c.now().Add(c.ttl)
			c.mu.Unlock()
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached text.
func (c *SchemaCache) Invalidate() {
	c.mu.Lock()
	c.text = ""
	c.expires = time.Time{}
	c.mu.Unlock()
}
