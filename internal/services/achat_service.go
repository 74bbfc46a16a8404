package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"
	"chantierfin/internal/ports"
)

// AchatService gere le cycle de vie des engagements d'achat.
type AchatService struct {
	budgets ports.BudgetRepository
	achats  ports.AchatRepository
	journal ports.JournalFinancierRepository
	bus     ports.EventBus
	now     func() time.Time
}

func NewAchatService(budgets ports.BudgetRepository, achats ports.AchatRepository, journal ports.JournalFinancierRepository, bus ports.EventBus) *AchatService {
	return &AchatService{
		budgets: budgets,
		achats:  achats,
		journal: journal,
		bus:     bus,
		now:     time.Now,
	}
}

// CreerAchat enregistre une demande d'achat en statut initial DEMANDE.
func (s *AchatService) CreerAchat(ctx context.Context, chantierID int64, libelle string, quantite, prixUnitaireHT decimal.Decimal, demandeur string) (*core.Achat, error) {
	achat := &core.Achat{
		ChantierID:     chantierID,
		Libelle:        libelle,
		Quantite:       quantite,
		PrixUnitaireHT: prixUnitaireHT,
		Statut:         core.StatutDemande,
		CreatedAt:      s.now(),
	}
	if err := achat.Validate(); err != nil {
		return nil, err
	}

	if err := s.achats.Save(ctx, achat); err != nil {
		return nil, fmt.Errorf("enregistrer achat: %w", err)
	}

	journaliser(ctx, s.journal, chantierID, "creation_achat", "achat", achat.ID, achat.MontantHT(), demandeur, s.now())

	if depasse, seuil := s.depasseSeuilValidation(ctx, chantierID, achat.MontantHT()); depasse {
		slog.WarnContext(ctx, "Achat au dessus du seuil de validation du budget",
			"achat_id", achat.ID,
			"montant_ht", core.FormatMontant(achat.MontantHT()),
			"seuil_validation", core.FormatMontant(seuil))
	}

	slog.InfoContext(ctx, "Achat cree",
		"achat_id", achat.ID,
		"chantier_id", chantierID,
		"montant_ht", core.FormatMontant(achat.MontantHT()))

	return achat, nil
}

// ChangerStatut fait progresser un achat dans la machine a etats. Toute
// transition hors table echoue avec TransitionInvalideError et ne mute rien.
func (s *AchatService) ChangerStatut(ctx context.Context, achatID int64, vers core.StatutAchat, par string) (*core.Achat, error) {
	if !vers.EstValide() {
		return nil, &core.ParametreInvalideError{Champ: "statut", Raison: "statut inconnu"}
	}

	achat, err := s.achats.FindByID(ctx, achatID)
	if err != nil {
		return nil, fmt.Errorf("chercher achat: %w", err)
	}

	de := achat.Statut
	if err := achat.ChangerStatut(vers); err != nil {
		return nil, err
	}
	if err := s.achats.Save(ctx, achat); err != nil {
		return nil, fmt.Errorf("enregistrer achat: %w", err)
	}

	journaliser(ctx, s.journal, achat.ChantierID, "statut_achat_"+string(vers), "achat", achat.ID, achat.MontantHT(), par, s.now())
	publier(ctx, s.bus, core.EvenementFinancier{
		Type:       core.EvenementAchatStatutChange,
		ChantierID: achat.ChantierID,
		Entite:     "achat",
		EntiteID:   achat.ID,
		MontantHT:  core.FormatMontant(achat.MontantHT()),
		Horodatage: s.now(),
	})

	slog.InfoContext(ctx, "Statut d'achat change",
		"achat_id", achat.ID,
		"de", de,
		"vers", vers)

	return achat, nil
}

// depasseSeuilValidation compare le montant au seuil de validation du
// budget du chantier, quand ce budget existe.
func (s *AchatService) depasseSeuilValidation(ctx context.Context, chantierID int64, montant decimal.Decimal) (bool, decimal.Decimal) {
	budget, err := s.budgets.FindByChantierID(ctx, chantierID)
	if err != nil {
		return false, decimal.Zero
	}
	if budget.SeuilValidationAchat.IsPositive() && montant.GreaterThan(budget.SeuilValidationAchat) {
		return true, budget.SeuilValidationAchat
	}
	return false, decimal.Zero
}
