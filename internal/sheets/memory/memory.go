// Package memory est le RapportWriter local: il garde les instantanes en
// memoire, pour le backend memoire et les tests du worker.
package memory

import (
	"context"
	"fmt"
	"sync"

	"chantierfin/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.VueConsolidee
}

func New() *Store {
	return &Store{}
}

// Append garde l'instantane et retourne une reference synthetique.
func (s *Store) Append(_ context.Context, vue core.VueConsolidee) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, vue)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Instantanes retourne une copie des vues enregistrees.
func (s *Store) Instantanes() []core.VueConsolidee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.VueConsolidee(nil), s.items...)
}
