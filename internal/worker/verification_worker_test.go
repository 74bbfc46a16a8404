package worker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"
	"chantierfin/internal/memory"
	"chantierfin/internal/services"
	sheetsmem "chantierfin/internal/sheets/memory"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("montant invalide %q: %v", s, err)
	}
	return v
}

type fixture struct {
	worker  *VerificationWorker
	budgets *memory.BudgetStore
	achats  *memory.AchatStore
	alertes *memory.AlerteStore
	rapport *sheetsmem.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	budgets := memory.NewBudgetStore()
	achats := memory.NewAchatStore()
	alertes := memory.NewAlerteStore()
	rapport := sheetsmem.New()

	alerteSvc := services.NewAlerteService(budgets, achats, alertes,
		&memory.CoutFixe{Montant: decimal.Zero}, &memory.CoutFixe{Montant: decimal.Zero},
		memory.NewJournalStore(), memory.NewBusMemoire())
	consolidationSvc := services.NewConsolidationService(budgets, achats, alertes, nil)

	return &fixture{
		worker:  NewVerificationWorker(alerteSvc, consolidationSvc, budgets, rapport, time.Minute, 2),
		budgets: budgets,
		achats:  achats,
		alertes: alertes,
		rapport: rapport,
	}
}

func (f *fixture) seedChantier(t *testing.T, chantierID int64, initial, engage string) {
	t.Helper()
	ctx := context.Background()
	b := &core.Budget{
		ChantierID:       chantierID,
		MontantInitialHT: d(t, initial),
		SeuilAlertePct:   d(t, "80"),
		CreatedAt:        time.Now(),
	}
	if err := f.budgets.Save(ctx, b); err != nil {
		t.Fatalf("enregistrer budget: %v", err)
	}
	a := &core.Achat{
		ChantierID:     chantierID,
		Libelle:        "lot",
		Quantite:       d(t, "1"),
		PrixUnitaireHT: d(t, engage),
		Statut:         core.StatutValide,
		CreatedAt:      time.Now(),
	}
	if err := f.achats.Save(ctx, a); err != nil {
		t.Fatalf("enregistrer achat: %v", err)
	}
}

func TestHandleEvenement(t *testing.T) {
	ctx := context.Background()

	t.Run("mutation declenche une verification", func(t *testing.T) {
		f := newFixture(t)
		f.seedChantier(t, 1, "100000", "90000")

		ev := core.EvenementFinancier{
			Type:       core.EvenementAchatStatutChange,
			ChantierID: 1,
			Entite:     "achat",
			EntiteID:   1,
			Horodatage: time.Now(),
		}
		if err := f.worker.HandleEvenement(ctx, ev); err != nil {
			t.Fatalf("traiter evenement: %v", err)
		}

		alertes, err := f.alertes.FindByChantierID(ctx, 1)
		if err != nil {
			t.Fatalf("relire alertes: %v", err)
		}
		if len(alertes) != 1 {
			t.Errorf("alertes = %d, attendu 1", len(alertes))
		}
	})

	t.Run("alerte creee ne reboucle pas", func(t *testing.T) {
		f := newFixture(t)
		f.seedChantier(t, 1, "100000", "90000")

		ev := core.EvenementFinancier{
			Type:       core.EvenementAlerteCreee,
			ChantierID: 1,
			Horodatage: time.Now(),
		}
		if err := f.worker.HandleEvenement(ctx, ev); err != nil {
			t.Fatalf("traiter evenement: %v", err)
		}

		alertes, err := f.alertes.FindByChantierID(ctx, 1)
		if err != nil {
			t.Fatalf("relire alertes: %v", err)
		}
		if len(alertes) != 0 {
			t.Errorf("alertes = %d, attendu 0", len(alertes))
		}
	})

	t.Run("chantier sans budget ignore sans requeue", func(t *testing.T) {
		f := newFixture(t)
		ev := core.EvenementFinancier{
			Type:       core.EvenementAvenantValide,
			ChantierID: 42,
			Horodatage: time.Now(),
		}
		if err := f.worker.HandleEvenement(ctx, ev); err != nil {
			t.Errorf("un chantier sans budget ne doit pas faire echouer le traitement: %v", err)
		}
	})
}

func TestBalayer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedChantier(t, 1, "100000", "50000")
	f.seedChantier(t, 2, "100000", "95000")

	if err := f.worker.Balayer(ctx); err != nil {
		t.Fatalf("balayer: %v", err)
	}

	sous, err := f.alertes.FindByChantierID(ctx, 1)
	if err != nil {
		t.Fatalf("relire alertes: %v", err)
	}
	if len(sous) != 0 {
		t.Errorf("chantier sous le seuil: alertes = %d, attendu 0", len(sous))
	}

	depasse, err := f.alertes.FindByChantierID(ctx, 2)
	if err != nil {
		t.Fatalf("relire alertes: %v", err)
	}
	if len(depasse) != 1 {
		t.Errorf("chantier au dessus du seuil: alertes = %d, attendu 1", len(depasse))
	}

	instantanes := f.rapport.Instantanes()
	if len(instantanes) != 1 {
		t.Fatalf("instantanes exportes = %d, attendu 1", len(instantanes))
	}
	if instantanes[0].KPIGlobaux.NbChantiers != 2 {
		t.Errorf("nb chantiers dans le rapport = %d, attendu 2", instantanes[0].KPIGlobaux.NbChantiers)
	}
}
