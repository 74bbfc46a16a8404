package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"
	"chantierfin/internal/memory"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("montant invalide %q: %v", s, err)
	}
	return v
}

func budgetTest(t *testing.T, budgets *memory.BudgetStore, chantierID int64, initial, seuil string) *core.Budget {
	t.Helper()
	b := &core.Budget{
		ChantierID:       chantierID,
		MontantInitialHT: d(t, initial),
		SeuilAlertePct:   d(t, seuil),
		CreatedAt:        time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := budgets.Save(context.Background(), b); err != nil {
		t.Fatalf("enregistrer budget: %v", err)
	}
	return b
}

func figerDate(annee int, mois time.Month, jour int) func() time.Time {
	return func() time.Time {
		return time.Date(annee, mois, jour, 12, 0, 0, 0, time.UTC)
	}
}

func TestCreerAvenant(t *testing.T) {
	ctx := context.Background()

	t.Run("numerotation avec avenants existants", func(t *testing.T) {
		budgets := memory.NewBudgetStore()
		avenants := memory.NewAvenantStore()
		budget := budgetTest(t, budgets, 1, "100000", "80")

		svc := NewAvenantService(budgets, avenants, memory.NewJournalStore(), memory.NewBusMemoire())
		svc.now = figerDate(2026, time.May, 2)

		for _, motif := range []string{"terrassement", "gros oeuvre"} {
			if _, err := svc.CreerAvenant(ctx, budget.ID, motif, d(t, "1000"), "", "pm"); err != nil {
				t.Fatalf("creer avenant existant: %v", err)
			}
		}

		avenant, err := svc.CreerAvenant(ctx, budget.ID, "reseau eau", d(t, "2500.50"), "surcout reseau", "pm")
		if err != nil {
			t.Fatalf("creer avenant: %v", err)
		}
		if avenant.Numero != "AVN-2026-03" {
			t.Errorf("numero = %q, attendu AVN-2026-03", avenant.Numero)
		}
		if avenant.Statut != core.AvenantBrouillon {
			t.Errorf("statut = %q, attendu brouillon", avenant.Statut)
		}
	})

	t.Run("budget introuvable", func(t *testing.T) {
		svc := NewAvenantService(memory.NewBudgetStore(), memory.NewAvenantStore(), nil, nil)
		if _, err := svc.CreerAvenant(ctx, 99, "motif", d(t, "100"), "", "pm"); !errors.Is(err, core.ErrIntrouvable) {
			t.Errorf("attendu ErrIntrouvable, obtenu %v", err)
		}
	})

	t.Run("montant nul refuse", func(t *testing.T) {
		budgets := memory.NewBudgetStore()
		budget := budgetTest(t, budgets, 1, "100000", "80")
		svc := NewAvenantService(budgets, memory.NewAvenantStore(), nil, nil)
		if _, err := svc.CreerAvenant(ctx, budget.ID, "motif", decimal.Zero, "", "pm"); !errors.Is(err, core.ErrParametreInvalide) {
			t.Errorf("attendu ErrParametreInvalide, obtenu %v", err)
		}
	})
}

func TestValiderAvenant(t *testing.T) {
	ctx := context.Background()

	t.Run("le total est recalcule depuis les lignes sources", func(t *testing.T) {
		budgets := memory.NewBudgetStore()
		avenants := memory.NewAvenantStore()
		budget := budgetTest(t, budgets, 1, "100000", "80")

		svc := NewAvenantService(budgets, avenants, memory.NewJournalStore(), memory.NewBusMemoire())
		svc.now = figerDate(2026, time.May, 2)

		a1, err := svc.CreerAvenant(ctx, budget.ID, "terrassement", d(t, "5000"), "", "pm")
		if err != nil {
			t.Fatalf("creer avenant: %v", err)
		}
		a2, err := svc.CreerAvenant(ctx, budget.ID, "moins value electricite", d(t, "-1200.50"), "", "pm")
		if err != nil {
			t.Fatalf("creer avenant: %v", err)
		}

		if _, err := svc.ValiderAvenant(ctx, a1.ID, "dir"); err != nil {
			t.Fatalf("valider avenant: %v", err)
		}
		if _, err := svc.ValiderAvenant(ctx, a2.ID, "dir"); err != nil {
			t.Fatalf("valider avenant: %v", err)
		}

		apres, err := budgets.FindByID(ctx, budget.ID)
		if err != nil {
			t.Fatalf("relire budget: %v", err)
		}
		if !apres.MontantAvenantsHT.Equal(d(t, "3799.50")) {
			t.Errorf("montant avenants = %s, attendu 3799.50", apres.MontantAvenantsHT)
		}
		if !apres.MontantReviseHT().Equal(d(t, "103799.50")) {
			t.Errorf("montant revise = %s, attendu 103799.50", apres.MontantReviseHT())
		}
	})

	t.Run("revalider echoue en etat terminal", func(t *testing.T) {
		budgets := memory.NewBudgetStore()
		avenants := memory.NewAvenantStore()
		budget := budgetTest(t, budgets, 1, "100000", "80")

		svc := NewAvenantService(budgets, avenants, memory.NewJournalStore(), memory.NewBusMemoire())
		svc.now = figerDate(2026, time.May, 2)

		avenant, err := svc.CreerAvenant(ctx, budget.ID, "terrassement", d(t, "5000"), "", "pm")
		if err != nil {
			t.Fatalf("creer avenant: %v", err)
		}
		if _, err := svc.ValiderAvenant(ctx, avenant.ID, "dir"); err != nil {
			t.Fatalf("premiere validation: %v", err)
		}

		_, err = svc.ValiderAvenant(ctx, avenant.ID, "dir")
		if !errors.Is(err, core.ErrEtatTerminal) {
			t.Fatalf("attendu ErrEtatTerminal, obtenu %v", err)
		}

		apres, err := budgets.FindByID(ctx, budget.ID)
		if err != nil {
			t.Fatalf("relire budget: %v", err)
		}
		if !apres.MontantAvenantsHT.Equal(d(t, "5000")) {
			t.Errorf("montant avenants = %s, attendu 5000 inchange", apres.MontantAvenantsHT)
		}
	})

	t.Run("avenant introuvable", func(t *testing.T) {
		svc := NewAvenantService(memory.NewBudgetStore(), memory.NewAvenantStore(), nil, nil)
		if _, err := svc.ValiderAvenant(ctx, 404, "dir"); !errors.Is(err, core.ErrIntrouvable) {
			t.Errorf("attendu ErrIntrouvable, obtenu %v", err)
		}
	})
}

func TestSupprimerAvenant(t *testing.T) {
	ctx := context.Background()
	budgets := memory.NewBudgetStore()
	avenants := memory.NewAvenantStore()
	budget := budgetTest(t, budgets, 1, "100000", "80")

	svc := NewAvenantService(budgets, avenants, memory.NewJournalStore(), memory.NewBusMemoire())
	svc.now = figerDate(2026, time.May, 2)

	brouillon, err := svc.CreerAvenant(ctx, budget.ID, "terrassement", d(t, "5000"), "", "pm")
	if err != nil {
		t.Fatalf("creer avenant: %v", err)
	}
	valide, err := svc.CreerAvenant(ctx, budget.ID, "gros oeuvre", d(t, "8000"), "", "pm")
	if err != nil {
		t.Fatalf("creer avenant: %v", err)
	}
	if _, err := svc.ValiderAvenant(ctx, valide.ID, "dir"); err != nil {
		t.Fatalf("valider avenant: %v", err)
	}

	t.Run("brouillon supprimable", func(t *testing.T) {
		if err := svc.SupprimerAvenant(ctx, brouillon.ID, "pm"); err != nil {
			t.Fatalf("supprimer brouillon: %v", err)
		}
		if _, err := avenants.FindByID(ctx, brouillon.ID); !errors.Is(err, core.ErrIntrouvable) {
			t.Errorf("avenant toujours present apres suppression")
		}
	})

	t.Run("valide non supprimable", func(t *testing.T) {
		if err := svc.SupprimerAvenant(ctx, valide.ID, "pm"); !errors.Is(err, core.ErrEtatTerminal) {
			t.Errorf("attendu ErrEtatTerminal, obtenu %v", err)
		}
		if _, err := avenants.FindByID(ctx, valide.ID); err != nil {
			t.Errorf("avenant valide disparu: %v", err)
		}
	})
}
