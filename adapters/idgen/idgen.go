// Package idgen generates identifiers for created organizations and
// check-ins.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/wellgate/wellgate/ports"
)

// UUID issues random version-4 UUIDs. This is what production resources get.
type UUID struct{}

func (UUID) New() string {
	return uuid.New().String()
}

// Counter issues prefix-1, prefix-2, ... so tests can address created
// resources by predictable IDs.
type Counter struct {
	prefix string
	n      atomic.Uint64
}

// NewCounter creates a counting generator with the given prefix.
func NewCounter(prefix string) *Counter {
	return &Counter{prefix: prefix}
}

func (c *Counter) New() string {
	return fmt.Sprintf("%s%d", c.prefix, c.n.Add(1))
}

var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = (*Counter)(nil)
)
