// internal/catalog/arena_test.go
package catalog

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfp-proposal-engine/internal/models"
)

func TestArena_AddAndGet(t *testing.T) {
	arena := NewArena()
	arena.Add([]models.Candidate{
		{SKUID: "SKU-001", ProductName: "XLPE Cable 11kV", UnitPrice: 120.0},
		{SKUID: "SKU-002", ProductName: "XLPE Cable 33kV", UnitPrice: 180.0},
	})

	c, ok := arena.Get("SKU-001")
	require.True(t, ok)
	assert.Equal(t, "XLPE Cable 11kV", c.ProductName)

	_, ok = arena.Get("SKU-999")
	assert.False(t, ok)
	assert.Equal(t, 2, arena.Len())
}

func TestArena_FirstWriteWins(t *testing.T) {
	arena := NewArena()
	arena.Add([]models.Candidate{{SKUID: "SKU-001", UnitPrice: 100.0}})
	arena.Add([]models.Candidate{{SKUID: "SKU-001", UnitPrice: 999.0}})

	c, ok := arena.Get("SKU-001")
	require.True(t, ok)
	assert.Equal(t, 100.0, c.UnitPrice)
	assert.Equal(t, 1, arena.Len())
}

func TestArena_ConcurrentAdd(t *testing.T) {
	arena := NewArena()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			arena.Add([]models.Candidate{
				{SKUID: "SKU-A"},
				{SKUID: "SKU-B"},
				{SKUID: "SKU-C"},
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, arena.Len())
}
