package loanservice_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datdd/library-management-system/loanservice"
)

func Test_CounterGenerator_SequentialIDs(t *testing.T) {
	gen := loanservice.NewCounterGenerator()

	assert.Equal(t, "loan_1", gen.NextLoanID())
	assert.Equal(t, "loan_2", gen.NextLoanID())
	assert.Equal(t, "loan_3", gen.NextLoanID())
}

func Test_CounterGenerator_UniqueUnderConcurrency(t *testing.T) {
	gen := loanservice.NewCounterGenerator()

	const goroutines = 16
	const perGoroutine = 100

	var mu sync.Mutex
	seen := make(map[string]struct{}, goroutines*perGoroutine)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := gen.NextLoanID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine, "concurrent generation must never repeat an id")
}

func Test_UUIDGenerator_ProducesValidUniqueIDs(t *testing.T) {
	gen := loanservice.UUIDGenerator{}

	first := gen.NextLoanID()
	second := gen.NextLoanID()

	assert.NotEqual(t, first, second)
	_, err := uuid.Parse(first)
	require.NoError(t, err)
}
