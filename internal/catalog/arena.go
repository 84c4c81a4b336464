// internal/catalog/arena.go

// Package catalog provides candidate retrieval for the matching stage: the
// Elasticsearch-backed SKU search, a Redis embedding cache, and the run-scoped
// candidate arena.
package catalog

import (
	"sync"

	"rfp-proposal-engine/internal/models"
)

// Arena holds every candidate retrieved during one pipeline run, keyed by SKU
// id. Match results carry ids only; the arena resolves them back to candidate
// objects at pricing and presentation time. Safe for concurrent use by the
// per-item matching goroutines.
type Arena struct {
	mu         sync.RWMutex
	candidates map[string]models.Candidate
}

func NewArena() *Arena {
	return &Arena{candidates: make(map[string]models.Candidate)}
}

// Add registers candidates in the arena. The first write for a SKU id wins;
// retrieval for different items may return the same SKU.
func (a *Arena) Add(candidates []models.Candidate) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range candidates {
		if _, exists := a.candidates[c.SKUID]; !exists {
			a.candidates[c.SKUID] = c
		}
	}
}

// Get resolves a SKU id to its candidate.
func (a *Arena) Get(skuID string) (models.Candidate, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.candidates[skuID]
	return c, ok
}

// Len returns the number of distinct candidates seen this run.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.candidates)
}
