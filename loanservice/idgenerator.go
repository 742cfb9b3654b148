package loanservice

import (
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/datdd/library-management-system/domain"
)

// IDGenerator produces identifiers for new loan records.
type IDGenerator interface {
	NextLoanID() domain.EntityID
}

// CounterGenerator issues sequential ids with the "loan_" prefix. The
// counter is process-local and guarded by its own mutex, so id generation
// never contends with storage operations. Restarting the process restarts
// the sequence; use UUIDGenerator when ids must survive restarts.
type CounterGenerator struct {
	mu      sync.Mutex
	counter uint64
}

// NewCounterGenerator starts a fresh sequence at loan_1.
func NewCounterGenerator() *CounterGenerator {
	return &CounterGenerator{}
}

// NextLoanID returns the next id in the sequence.
func (g *CounterGenerator) NextLoanID() domain.EntityID {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counter++

	return "loan_" + strconv.FormatUint(g.counter, 10)
}

// UUIDGenerator issues time-ordered UUIDv7 ids, collision-resistant
// across restarts and processes.
type UUIDGenerator struct{}

// NextLoanID returns a fresh UUID. UUIDv7 keeps ids time-sortable; when
// the random source fails it falls back to a v4 id.
func (UUIDGenerator) NextLoanID() domain.EntityID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

var _ IDGenerator = (*CounterGenerator)(nil)
var _ IDGenerator = UUIDGenerator{}
