// Package memory fournit des implementations en memoire des ports du
// moteur financier. Elles servent de backend local et de doublures dans
// les tests de services.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"
)

// BudgetStore implemente ports.BudgetRepository sur une map.
type BudgetStore struct {
	mu       sync.Mutex
	budgets  map[int64]core.Budget
	prochain int64
}

func NewBudgetStore() *BudgetStore {
	return &BudgetStore{budgets: make(map[int64]core.Budget)}
}

func (s *BudgetStore) FindByChantierID(_ context.Context, chantierID int64) (*core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.ChantierID == chantierID {
			copie := b
			return &copie, nil
		}
	}
	return nil, &core.NotFoundError{Entite: "budget", ID: chantierID}
}

func (s *BudgetStore) FindByID(_ context.Context, id int64) (*core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return nil, &core.NotFoundError{Entite: "budget", ID: id}
	}
	copie := b
	return &copie, nil
}

func (s *BudgetStore) Save(_ context.Context, b *core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		s.prochain++
		b.ID = s.prochain
	}
	s.budgets[b.ID] = *b
	return nil
}

// ListChantierIDs retourne les chantiers ayant un budget, tries par ID.
func (s *BudgetStore) ListChantierIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vus := make(map[int64]struct{})
	var ids []int64
	for _, b := range s.budgets {
		if _, ok := vus[b.ChantierID]; !ok {
			vus[b.ChantierID] = struct{}{}
			ids = append(ids, b.ChantierID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// AchatStore implemente ports.AchatRepository sur une map.
type AchatStore struct {
	mu       sync.Mutex
	achats   map[int64]core.Achat
	prochain int64
}

func NewAchatStore() *AchatStore {
	return &AchatStore{achats: make(map[int64]core.Achat)}
}

func (s *AchatStore) FindByID(_ context.Context, id int64) (*core.Achat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.achats[id]
	if !ok {
		return nil, &core.NotFoundError{Entite: "achat", ID: id}
	}
	copie := a
	return &copie, nil
}

func (s *AchatStore) FindByChantier(_ context.Context, chantierID int64) ([]core.Achat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Achat
	for _, a := range s.achats {
		if a.ChantierID == chantierID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *AchatStore) SommeByChantier(_ context.Context, chantierID int64, statuts []core.StatutAchat) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	somme := decimal.Zero
	for _, a := range s.achats {
		if a.ChantierID != chantierID {
			continue
		}
		for _, st := range statuts {
			if a.Statut == st {
				somme = somme.Add(a.MontantHT())
				break
			}
		}
	}
	return somme, nil
}

func (s *AchatStore) Save(_ context.Context, a *core.Achat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		s.prochain++
		a.ID = s.prochain
	}
	s.achats[a.ID] = *a
	return nil
}

// AvenantStore implemente ports.AvenantRepository sur une map.
type AvenantStore struct {
	mu       sync.Mutex
	avenants map[int64]core.AvenantBudgetaire
	prochain int64
}

func NewAvenantStore() *AvenantStore {
	return &AvenantStore{avenants: make(map[int64]core.AvenantBudgetaire)}
}

func (s *AvenantStore) FindByID(_ context.Context, id int64) (*core.AvenantBudgetaire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.avenants[id]
	if !ok {
		return nil, &core.NotFoundError{Entite: "avenant", ID: id}
	}
	copie := a
	return &copie, nil
}

func (s *AvenantStore) FindByBudgetID(_ context.Context, budgetID int64) ([]core.AvenantBudgetaire, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.AvenantBudgetaire
	for _, a := range s.avenants {
		if a.BudgetID == budgetID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *AvenantStore) CountByBudgetID(_ context.Context, budgetID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.avenants {
		if a.BudgetID == budgetID {
			n++
		}
	}
	return n, nil
}

func (s *AvenantStore) Save(_ context.Context, a *core.AvenantBudgetaire) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		s.prochain++
		a.ID = s.prochain
	}
	s.avenants[a.ID] = *a
	return nil
}

func (s *AvenantStore) SommeAvenantsValides(_ context.Context, budgetID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	somme := decimal.Zero
	for _, a := range s.avenants {
		if a.BudgetID == budgetID && a.Statut == core.AvenantValide {
			somme = somme.Add(a.MontantHT)
		}
	}
	return somme, nil
}

func (s *AvenantStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.avenants[id]; !ok {
		return &core.NotFoundError{Entite: "avenant", ID: id}
	}
	delete(s.avenants, id)
	return nil
}

// AlerteStore implemente ports.AlerteRepository sur une map.
type AlerteStore struct {
	mu        sync.Mutex
	alertes   map[int64]core.AlerteDepassement
	prochaine int64
}

func NewAlerteStore() *AlerteStore {
	return &AlerteStore{alertes: make(map[int64]core.AlerteDepassement)}
}

func (s *AlerteStore) Save(_ context.Context, a *core.AlerteDepassement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		s.prochaine++
		a.ID = s.prochaine
	}
	s.alertes[a.ID] = *a
	return nil
}

func (s *AlerteStore) FindByID(_ context.Context, id int64) (*core.AlerteDepassement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alertes[id]
	if !ok {
		return nil, &core.NotFoundError{Entite: "alerte", ID: id}
	}
	copie := a
	return &copie, nil
}

func (s *AlerteStore) FindByChantierID(_ context.Context, chantierID int64) ([]core.AlerteDepassement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.AlerteDepassement
	for _, a := range s.alertes {
		if a.ChantierID == chantierID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *AlerteStore) FindNonAcquittees(_ context.Context, chantierID int64) ([]core.AlerteDepassement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.AlerteDepassement
	for _, a := range s.alertes {
		if a.ChantierID == chantierID && !a.EstAcquittee {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *AlerteStore) Acquitter(_ context.Context, id int64, utilisateur string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alertes[id]
	if !ok {
		return &core.NotFoundError{Entite: "alerte", ID: id}
	}
	if err := a.Acquitter(utilisateur, time.Now()); err != nil {
		return err
	}
	s.alertes[id] = a
	return nil
}

// JournalStore implemente ports.JournalFinancierRepository, append-only.
type JournalStore struct {
	mu      sync.Mutex
	entrees []core.JournalEntry
}

func NewJournalStore() *JournalStore {
	return &JournalStore{}
}

func (s *JournalStore) Save(_ context.Context, e *core.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = int64(len(s.entrees) + 1)
	s.entrees = append(s.entrees, *e)
	return nil
}

// Entrees retourne une copie de la piste d'audit, pour les tests.
func (s *JournalStore) Entrees() []core.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.JournalEntry(nil), s.entrees...)
}

// ChantierStore implemente ports.ChantierInfo sur une map de fiches.
type ChantierStore struct {
	mu     sync.Mutex
	fiches map[int64]core.ChantierInfo
}

func NewChantierStore() *ChantierStore {
	return &ChantierStore{fiches: make(map[int64]core.ChantierInfo)}
}

func (s *ChantierStore) Set(info core.ChantierInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fiches[info.ID] = info
}

func (s *ChantierStore) GetChantierInfo(_ context.Context, chantierID int64) (*core.ChantierInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fiches[chantierID]
	if !ok {
		return nil, &core.NotFoundError{Entite: "chantier", ID: chantierID}
	}
	copie := f
	return &copie, nil
}

func (s *ChantierStore) ListChantierIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.fiches))
	for id := range s.fiches {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// CoutFixe implemente les ports de cout collaborateur avec une valeur
// fixe, et une erreur injectable pour tester la substitution par zero.
type CoutFixe struct {
	Montant decimal.Decimal
	Err     error
}

func (c *CoutFixe) CalculerCoutChantier(context.Context, int64) (decimal.Decimal, error) {
	if c.Err != nil {
		return decimal.Zero, c.Err
	}
	return c.Montant, nil
}

// BusMemoire implemente ports.EventBus en collectant les evenements.
type BusMemoire struct {
	mu         sync.Mutex
	evenements []core.EvenementFinancier
	Err        error
}

func NewBusMemoire() *BusMemoire {
	return &BusMemoire{}
}

func (b *BusMemoire) Publish(_ context.Context, ev core.EvenementFinancier) error {
	if b.Err != nil {
		return b.Err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.evenements = append(b.evenements, ev)
	return nil
}

// Evenements retourne une copie des evenements publies, pour les tests.
func (b *BusMemoire) Evenements() []core.EvenementFinancier {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]core.EvenementFinancier(nil), b.evenements...)
}
