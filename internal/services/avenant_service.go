// Package services porte les cas d'usage du moteur financier. Chaque cas
// d'usage est une unite de travail courte, mono-thread, liee a la session
// de persistance fournie par l'appelant; aucun etat mutable ne survit entre
// deux invocations en dehors de ce que les depots persistent.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"
	"chantierfin/internal/ports"
)

// AvenantService orchestre la creation, la validation et la suppression
// des avenants budgetaires.
type AvenantService struct {
	budgets  ports.BudgetRepository
	avenants ports.AvenantRepository
	journal  ports.JournalFinancierRepository
	bus      ports.EventBus
	now      func() time.Time
}

func NewAvenantService(budgets ports.BudgetRepository, avenants ports.AvenantRepository, journal ports.JournalFinancierRepository, bus ports.EventBus) *AvenantService {
	return &AvenantService{
		budgets:  budgets,
		avenants: avenants,
		journal:  journal,
		bus:      bus,
		now:      time.Now,
	}
}

// CreerAvenant cree un avenant en brouillon sur le budget donne. Le numero
// combine l'annee courante et le compteur monotone par budget (compte des
// avenants existants + 1); le compteur ne se remet pas a zero quand l'annee
// change.
func (s *AvenantService) CreerAvenant(ctx context.Context, budgetID int64, motif string, montantHT decimal.Decimal, impactDescription, createdBy string) (*core.AvenantBudgetaire, error) {
	budget, err := s.budgets.FindByID(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("chercher budget: %w", err)
	}

	existants, err := s.avenants.CountByBudgetID(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("compter avenants: %w", err)
	}

	avenant := &core.AvenantBudgetaire{
		BudgetID:          budget.ID,
		Numero:            core.NumeroAvenant(s.now().Year(), existants+1),
		Motif:             strings.TrimSpace(motif),
		MontantHT:         montantHT,
		ImpactDescription: impactDescription,
		Statut:            core.AvenantBrouillon,
		CreatedAt:         s.now(),
	}
	if err := avenant.Validate(); err != nil {
		return nil, err
	}

	if err := s.avenants.Save(ctx, avenant); err != nil {
		return nil, fmt.Errorf("enregistrer avenant: %w", err)
	}

	journaliser(ctx, s.journal, budget.ChantierID, "creation_avenant", "avenant", avenant.ID, montantHT, createdBy, s.now())

	slog.InfoContext(ctx, "Avenant cree",
		"avenant_id", avenant.ID,
		"budget_id", budgetID,
		"numero", avenant.Numero,
		"montant_ht", core.FormatMontant(montantHT))

	return avenant, nil
}

// ValiderAvenant passe l'avenant en valide puis recalcule le total des
// avenants du budget depuis les lignes sources, jamais par increment en
// place, pour rester correct sous validations concurrentes ou desordonnees.
func (s *AvenantService) ValiderAvenant(ctx context.Context, avenantID int64, validatedBy string) (*core.AvenantBudgetaire, error) {
	avenant, err := s.avenants.FindByID(ctx, avenantID)
	if err != nil {
		return nil, fmt.Errorf("chercher avenant: %w", err)
	}
	if avenant.Statut == core.AvenantValide {
		return nil, &core.EtatTerminalError{Entite: "avenant", ID: avenantID, Etat: string(core.AvenantValide)}
	}

	avenant.Statut = core.AvenantValide
	avenant.ValidatedBy = validatedBy
	if err := s.avenants.Save(ctx, avenant); err != nil {
		return nil, fmt.Errorf("enregistrer avenant: %w", err)
	}

	budget, err := s.budgets.FindByID(ctx, avenant.BudgetID)
	if err != nil {
		return nil, fmt.Errorf("chercher budget: %w", err)
	}

	total, err := s.avenants.SommeAvenantsValides(ctx, budget.ID)
	if err != nil {
		return nil, fmt.Errorf("recalculer avenants valides: %w", err)
	}
	budget.MontantAvenantsHT = total
	if err := s.budgets.Save(ctx, budget); err != nil {
		return nil, fmt.Errorf("enregistrer budget: %w", err)
	}

	journaliser(ctx, s.journal, budget.ChantierID, "validation_avenant", "avenant", avenant.ID, avenant.MontantHT, validatedBy, s.now())
	publier(ctx, s.bus, core.EvenementFinancier{
		Type:       core.EvenementAvenantValide,
		ChantierID: budget.ChantierID,
		Entite:     "avenant",
		EntiteID:   avenant.ID,
		MontantHT:  core.FormatMontant(avenant.MontantHT),
		Horodatage: s.now(),
	})

	slog.InfoContext(ctx, "Avenant valide",
		"avenant_id", avenant.ID,
		"numero", avenant.Numero,
		"montant_avenants_ht", core.FormatMontant(total))

	return avenant, nil
}

// SupprimerAvenant efface un avenant, uniquement tant qu'il est brouillon.
func (s *AvenantService) SupprimerAvenant(ctx context.Context, avenantID int64, par string) error {
	avenant, err := s.avenants.FindByID(ctx, avenantID)
	if err != nil {
		return fmt.Errorf("chercher avenant: %w", err)
	}
	if !avenant.EstBrouillon() {
		return &core.EtatTerminalError{Entite: "avenant", ID: avenantID, Etat: string(avenant.Statut)}
	}
	if err := s.avenants.Delete(ctx, avenantID); err != nil {
		return fmt.Errorf("supprimer avenant: %w", err)
	}

	budget, err := s.budgets.FindByID(ctx, avenant.BudgetID)
	if err != nil {
		return fmt.Errorf("chercher budget: %w", err)
	}
	journaliser(ctx, s.journal, budget.ChantierID, "suppression_avenant", "avenant", avenantID, avenant.MontantHT, par, s.now())
	return nil
}
