package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"
	"chantierfin/internal/ports"
)

// AlerteService est le moteur d'alertes de depassement budgetaire.
type AlerteService struct {
	budgets  ports.BudgetRepository
	achats   ports.AchatRepository
	alertes  ports.AlerteRepository
	coutsMO  ports.CoutMainOeuvreRepository
	coutsMat ports.CoutMaterielRepository
	journal  ports.JournalFinancierRepository
	bus      ports.EventBus
	now      func() time.Time
}

func NewAlerteService(budgets ports.BudgetRepository, achats ports.AchatRepository, alertes ports.AlerteRepository, coutsMO ports.CoutMainOeuvreRepository, coutsMat ports.CoutMaterielRepository, journal ports.JournalFinancierRepository, bus ports.EventBus) *AlerteService {
	return &AlerteService{
		budgets:  budgets,
		achats:   achats,
		alertes:  alertes,
		coutsMO:  coutsMO,
		coutsMat: coutsMat,
		journal:  journal,
		bus:      bus,
		now:      time.Now,
	}
}

// VerifierDepassement evalue les trois regles independantes de depassement
// pour un chantier et persiste, journalise et publie chaque alerte creee
// (0 a 3 par passe).
//
// Budget absent: erreur domaine "aucun budget". Budget revise nul: liste
// vide, pas d'erreur. Un echec du calcul de cout main d'oeuvre ou materiel
// vaut zero pour ce terme et la passe continue; seul cet ajustement local
// est tolere, les erreurs de persistance remontent telles quelles.
func (s *AlerteService) VerifierDepassement(ctx context.Context, chantierID int64) ([]core.AlerteDepassement, error) {
	budget, err := s.budgets.FindByChantierID(ctx, chantierID)
	if err != nil {
		if errors.Is(err, core.ErrIntrouvable) {
			return nil, fmt.Errorf("aucun budget pour le chantier: %w", &core.NotFoundError{Entite: "budget", ID: chantierID})
		}
		return nil, fmt.Errorf("chercher budget: %w", err)
	}

	revise := budget.MontantReviseHT()
	if revise.IsZero() {
		return []core.AlerteDepassement{}, nil
	}

	engage, err := s.achats.SommeByChantier(ctx, chantierID, core.StatutsEngages())
	if err != nil {
		return nil, fmt.Errorf("somme des achats engages: %w", err)
	}
	facture, err := s.achats.SommeByChantier(ctx, chantierID, []core.StatutAchat{core.StatutFacture})
	if err != nil {
		return nil, fmt.Errorf("somme des achats factures: %w", err)
	}

	coutMO := s.coutOuZero(ctx, s.coutsMO, chantierID, "main_oeuvre")
	coutMat := s.coutOuZero(ctx, s.coutsMat, chantierID, "materiel")

	pctEngage := core.Pourcentage(engage, revise)
	totalRealise := facture.Add(coutMO).Add(coutMat)
	pctRealise := core.Pourcentage(totalRealise, revise)

	var creees []core.AlerteDepassement

	if pctEngage.GreaterThanOrEqual(budget.SeuilAlertePct) {
		alerte, err := s.creerAlerte(ctx, budget, core.AlerteSeuilEngage,
			fmt.Sprintf("Montant engage a %s%% du budget revise (seuil %s%%)",
				core.FormatMontant(pctEngage), core.FormatMontant(budget.SeuilAlertePct)),
			pctEngage, revise, engage)
		if err != nil {
			return creees, err
		}
		creees = append(creees, alerte)
	}

	if pctRealise.GreaterThanOrEqual(budget.SeuilAlertePct) {
		alerte, err := s.creerAlerte(ctx, budget, core.AlerteSeuilRealise,
			fmt.Sprintf("Montant realise a %s%% du budget revise (seuil %s%%)",
				core.FormatMontant(pctRealise), core.FormatMontant(budget.SeuilAlertePct)),
			pctRealise, revise, totalRealise)
		if err != nil {
			return creees, err
		}
		creees = append(creees, alerte)
	}

	if totalRealise.GreaterThan(revise) {
		alerte, err := s.creerAlerte(ctx, budget, core.AlertePerteTerminaison,
			fmt.Sprintf("Perte projetee a terminaison: realise %s pour un budget revise de %s",
				core.FormatMontant(totalRealise), core.FormatMontant(revise)),
			pctRealise, revise, totalRealise)
		if err != nil {
			return creees, err
		}
		creees = append(creees, alerte)
	}

	slog.InfoContext(ctx, "Passe de verification terminee",
		"chantier_id", chantierID,
		"pct_engage", core.FormatMontant(pctEngage),
		"pct_realise", core.FormatMontant(pctRealise),
		"alertes_creees", len(creees))

	return creees, nil
}

// AcquitterAlerte marque une alerte comme traitee, a sens unique.
func (s *AlerteService) AcquitterAlerte(ctx context.Context, alerteID int64, utilisateur string) error {
	alerte, err := s.alertes.FindByID(ctx, alerteID)
	if err != nil {
		return fmt.Errorf("chercher alerte: %w", err)
	}
	if alerte.EstAcquittee {
		return &core.EtatTerminalError{Entite: "alerte", ID: alerteID, Etat: "acquittee"}
	}
	if err := s.alertes.Acquitter(ctx, alerteID, utilisateur); err != nil {
		return fmt.Errorf("acquitter alerte: %w", err)
	}

	journaliser(ctx, s.journal, alerte.ChantierID, "acquittement_alerte", "alerte", alerteID, alerte.MontantAtteintHT, utilisateur, s.now())
	return nil
}

// coutOuZero encapsule exactement les deux appels collaborateurs tolerants
// a l'echec: pas de filet global autour de la passe, pour ne pas masquer
// les vraies erreurs de persistance.
func (s *AlerteService) coutOuZero(ctx context.Context, repo interface {
	CalculerCoutChantier(ctx context.Context, chantierID int64) (decimal.Decimal, error)
}, chantierID int64, nature string) decimal.Decimal {
	if repo == nil {
		return decimal.Zero
	}
	cout, err := repo.CalculerCoutChantier(ctx, chantierID)
	if err != nil {
		slog.WarnContext(ctx, "Cout collaborateur indisponible, zero substitue",
			"nature", nature, "chantier_id", chantierID, "error", err)
		return decimal.Zero
	}
	return cout
}

// creerAlerte persiste, journalise et publie une alerte. Un echec de
// persistance remonte a l'appelant; les alertes deja creees dans la meme
// passe restent en base, il n'y a pas de rollback.
func (s *AlerteService) creerAlerte(ctx context.Context, budget *core.Budget, typ core.TypeAlerte, message string, pct, montantBudget, montantAtteint decimal.Decimal) (core.AlerteDepassement, error) {
	alerte := core.AlerteDepassement{
		ChantierID:         budget.ChantierID,
		BudgetID:           budget.ID,
		TypeAlerte:         typ,
		Message:            message,
		PourcentageAtteint: pct,
		SeuilConfigure:     budget.SeuilAlertePct,
		MontantBudgetHT:    montantBudget,
		MontantAtteintHT:   montantAtteint,
		CreatedAt:          s.now(),
	}
	if err := s.alertes.Save(ctx, &alerte); err != nil {
		return core.AlerteDepassement{}, fmt.Errorf("enregistrer alerte %s: %w", typ, err)
	}

	journaliser(ctx, s.journal, budget.ChantierID, "creation_alerte", "alerte", alerte.ID, montantAtteint, "systeme", s.now())
	publier(ctx, s.bus, core.EvenementFinancier{
		Type:       core.EvenementAlerteCreee,
		ChantierID: budget.ChantierID,
		Entite:     "alerte",
		EntiteID:   alerte.ID,
		MontantHT:  core.FormatMontant(montantAtteint),
		Horodatage: s.now(),
	})

	return alerte, nil
}
