package economy

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ID prefixes.
const (
	prefixTransaction = "txn"
	prefixReceipt     = "rcpt"
	prefixPurchase    = "pur"
)

// IDGenerator produces unique ids for transactions, receipts and purchases.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator issues random v4 UUID ids.
type UUIDGenerator struct{}

// NewID returns prefix_<uuid>.
func (UUIDGenerator) NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// SequenceGenerator issues monotonic ids. Safe for concurrent use.
type SequenceGenerator struct {
	n atomic.Uint64
}

// NewID returns prefix_<n> with n strictly increasing across all prefixes.
func (g *SequenceGenerator) NewID(prefix string) string {
	return fmt.Sprintf("%s_%06d", prefix, g.n.Add(1))
}

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}
