// Package ports declare les contrats sortants du moteur financier.
// Les adapters (memoire, sqlite, amqp) les implementent; les services ne
// dependent que de ces interfaces.
package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"
)

type (
	// BudgetRepository gere l'enveloppe budgetaire d'un chantier.
	BudgetRepository interface {
		FindByChantierID(ctx context.Context, chantierID int64) (*core.Budget, error)
		FindByID(ctx context.Context, id int64) (*core.Budget, error)
		Save(ctx context.Context, b *core.Budget) error
	}

	// AchatRepository gere les engagements d'achat d'un chantier.
	AchatRepository interface {
		FindByID(ctx context.Context, id int64) (*core.Achat, error)
		FindByChantier(ctx context.Context, chantierID int64) ([]core.Achat, error)
		// SommeByChantier retourne la somme des montants HT des achats du
		// chantier dont le statut figure dans statuts.
		SommeByChantier(ctx context.Context, chantierID int64, statuts []core.StatutAchat) (decimal.Decimal, error)
		Save(ctx context.Context, a *core.Achat) error
	}

	// AvenantRepository gere les avenants budgetaires.
	AvenantRepository interface {
		FindByID(ctx context.Context, id int64) (*core.AvenantBudgetaire, error)
		FindByBudgetID(ctx context.Context, budgetID int64) ([]core.AvenantBudgetaire, error)
		CountByBudgetID(ctx context.Context, budgetID int64) (int64, error)
		Save(ctx context.Context, a *core.AvenantBudgetaire) error
		// SommeAvenantsValides recalcule depuis les lignes sources la somme
		// des avenants en statut valide du budget.
		SommeAvenantsValides(ctx context.Context, budgetID int64) (decimal.Decimal, error)
		Delete(ctx context.Context, id int64) error
	}

	// AlerteRepository gere les alertes de depassement.
	AlerteRepository interface {
		Save(ctx context.Context, a *core.AlerteDepassement) error
		FindByID(ctx context.Context, id int64) (*core.AlerteDepassement, error)
		FindByChantierID(ctx context.Context, chantierID int64) ([]core.AlerteDepassement, error)
		FindNonAcquittees(ctx context.Context, chantierID int64) ([]core.AlerteDepassement, error)
		Acquitter(ctx context.Context, id int64, utilisateur string) error
	}

	// CoutMainOeuvreRepository fournit le cout de main d'oeuvre a date d'un
	// chantier. L'appel peut echouer: le moteur d'alertes substitue alors
	// zero et continue.
	CoutMainOeuvreRepository interface {
		CalculerCoutChantier(ctx context.Context, chantierID int64) (decimal.Decimal, error)
	}

	// CoutMaterielRepository fournit le cout materiel/equipement a date.
	CoutMaterielRepository interface {
		CalculerCoutChantier(ctx context.Context, chantierID int64) (decimal.Decimal, error)
	}

	// JournalFinancierRepository est la piste d'audit, append-only.
	JournalFinancierRepository interface {
		Save(ctx context.Context, e *core.JournalEntry) error
	}

	// EventBus publie les evenements de domaine, en best-effort.
	EventBus interface {
		Publish(ctx context.Context, ev core.EvenementFinancier) error
	}

	// ChantierInfo expose la fiche chantier pour l'affichage et la liste
	// des chantiers connus pour la passe de verification du worker.
	ChantierInfo interface {
		GetChantierInfo(ctx context.Context, chantierID int64) (*core.ChantierInfo, error)
		ListChantierIDs(ctx context.Context) ([]int64, error)
	}
)
