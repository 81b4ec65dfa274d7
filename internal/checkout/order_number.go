package checkout

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// OrderNumberGenerator issues human-facing order numbers of the form
// PREFIX-<ULID>. Numbers from one generator sort by issue time.
type OrderNumberGenerator struct {
	mu      sync.Mutex
	prefix  string
	entropy io.Reader
	now     func() time.Time
}

// NewOrderNumberGenerator returns a generator using prefix (e.g. "ORD").
func NewOrderNumberGenerator(prefix string) *OrderNumberGenerator {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "ORD"
	}
	return &OrderNumberGenerator{
		prefix:  prefix,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Next returns a fresh order number.
func (g *OrderNumberGenerator) Next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now()), g.entropy)
	if err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return g.prefix + "-" + id.String(), nil
}
