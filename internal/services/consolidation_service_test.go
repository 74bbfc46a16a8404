package services

import (
	"context"
	"testing"

	"chantierfin/internal/core"
	"chantierfin/internal/memory"
)

func TestConsolider(t *testing.T) {
	ctx := context.Background()

	t.Run("chantier sans budget ignore", func(t *testing.T) {
		budgets := memory.NewBudgetStore()
		achats := memory.NewAchatStore()
		budgetTest(t, budgets, 1, "100000", "80")
		achatTest(t, achats, 1, "50000", core.StatutValide)

		svc := NewConsolidationService(budgets, achats, memory.NewAlerteStore(), nil)
		vue, err := svc.Consolider(ctx, []int64{1, 2})
		if err != nil {
			t.Fatalf("consolider: %v", err)
		}
		if vue.KPIGlobaux.NbChantiers != 1 {
			t.Fatalf("nb chantiers = %d, attendu 1", vue.KPIGlobaux.NbChantiers)
		}
		if len(vue.Chantiers) != 1 || vue.Chantiers[0].ChantierID != 1 {
			t.Fatalf("seul le chantier 1 doit apparaitre: %+v", vue.Chantiers)
		}

		synthese := vue.Chantiers[0]
		if got := core.FormatMontant(synthese.PctEngage); got != "50.00" {
			t.Errorf("pct engage = %q, attendu 50.00", got)
		}
		if synthese.Statut != core.ChantierOK {
			t.Errorf("statut = %q, attendu ok", synthese.Statut)
		}
		if synthese.NomChantier != "Chantier 1" {
			t.Errorf("nom = %q, attendu Chantier 1", synthese.NomChantier)
		}
		if !vue.KPIGlobaux.TotalResteADepenser.Equal(d(t, "50000")) {
			t.Errorf("reste a depenser = %s, attendu 50000", vue.KPIGlobaux.TotalResteADepenser)
		}
	})

	t.Run("liste vide donne un resultat a zero", func(t *testing.T) {
		svc := NewConsolidationService(memory.NewBudgetStore(), memory.NewAchatStore(), memory.NewAlerteStore(), nil)
		vue, err := svc.Consolider(ctx, nil)
		if err != nil {
			t.Fatalf("consolider: %v", err)
		}
		if vue.KPIGlobaux.NbChantiers != 0 || !vue.KPIGlobaux.TotalBudget.IsZero() {
			t.Errorf("KPI non nuls pour une liste vide: %+v", vue.KPIGlobaux)
		}
		if len(vue.Chantiers) != 0 || len(vue.TopRentables) != 0 || len(vue.TopDerives) != 0 {
			t.Errorf("listes non vides pour une liste vide")
		}
	})

	t.Run("classification et classements", func(t *testing.T) {
		budgets := memory.NewBudgetStore()
		achats := memory.NewAchatStore()
		alertes := memory.NewAlerteStore()
		chantiers := memory.NewChantierStore()
		chantiers.Set(core.ChantierInfo{ID: 1, Nom: "Tour Horizon", Statut: "en_cours"})

		// 50% -> ok, 90% -> attention, 120% -> depassement.
		budgetTest(t, budgets, 1, "100000", "80")
		achatTest(t, achats, 1, "50000", core.StatutValide)
		budgetTest(t, budgets, 2, "100000", "80")
		achatTest(t, achats, 2, "90000", core.StatutCommande)
		budgetTest(t, budgets, 3, "100000", "80")
		achatTest(t, achats, 3, "120000", core.StatutFacture)

		svc := NewConsolidationService(budgets, achats, alertes, chantiers)
		vue, err := svc.Consolider(ctx, []int64{1, 2, 3})
		if err != nil {
			t.Fatalf("consolider: %v", err)
		}

		kpi := vue.KPIGlobaux
		if kpi.NbOK != 1 || kpi.NbAttention != 1 || kpi.NbDepassement != 1 {
			t.Errorf("repartition = ok:%d attention:%d depassement:%d, attendu 1/1/1",
				kpi.NbOK, kpi.NbAttention, kpi.NbDepassement)
		}
		if !kpi.TotalBudget.Equal(d(t, "300000")) {
			t.Errorf("total budget = %s, attendu 300000", kpi.TotalBudget)
		}
		if !kpi.TotalEngage.Equal(d(t, "260000")) {
			t.Errorf("total engage = %s, attendu 260000", kpi.TotalEngage)
		}
		if !kpi.TotalRealise.Equal(d(t, "120000")) {
			t.Errorf("total realise = %s, attendu 120000", kpi.TotalRealise)
		}

		if len(vue.TopRentables) != 3 || len(vue.TopDerives) != 3 {
			t.Fatalf("classements de taille %d/%d, attendu 3/3", len(vue.TopRentables), len(vue.TopDerives))
		}
		if vue.TopRentables[0].ChantierID != 1 {
			t.Errorf("plus rentable = chantier %d, attendu 1", vue.TopRentables[0].ChantierID)
		}
		if vue.TopDerives[0].ChantierID != 3 {
			t.Errorf("plus derive = chantier %d, attendu 3", vue.TopDerives[0].ChantierID)
		}
		if vue.Chantiers[0].NomChantier != "Tour Horizon" {
			t.Errorf("nom = %q, attendu Tour Horizon", vue.Chantiers[0].NomChantier)
		}
	})

	t.Run("classement limite a trois", func(t *testing.T) {
		budgets := memory.NewBudgetStore()
		achats := memory.NewAchatStore()
		ids := []int64{1, 2, 3, 4, 5}
		for _, id := range ids {
			budgetTest(t, budgets, id, "100000", "80")
			achatTest(t, achats, id, "10000", core.StatutValide)
		}

		svc := NewConsolidationService(budgets, achats, memory.NewAlerteStore(), nil)
		vue, err := svc.Consolider(ctx, ids)
		if err != nil {
			t.Fatalf("consolider: %v", err)
		}
		if vue.KPIGlobaux.NbChantiers != 5 {
			t.Errorf("nb chantiers = %d, attendu 5", vue.KPIGlobaux.NbChantiers)
		}
		if len(vue.TopRentables) != 3 || len(vue.TopDerives) != 3 {
			t.Errorf("classements de taille %d/%d, attendu 3/3", len(vue.TopRentables), len(vue.TopDerives))
		}
	})

	t.Run("budget revise nul donne une marge nulle", func(t *testing.T) {
		budgets := memory.NewBudgetStore()
		budgetTest(t, budgets, 1, "0", "80")

		svc := NewConsolidationService(budgets, memory.NewAchatStore(), memory.NewAlerteStore(), nil)
		vue, err := svc.Consolider(ctx, []int64{1})
		if err != nil {
			t.Fatalf("consolider: %v", err)
		}
		if len(vue.Chantiers) != 1 {
			t.Fatalf("nb syntheses = %d, attendu 1", len(vue.Chantiers))
		}
		if !vue.Chantiers[0].MargeEstimee.IsZero() {
			t.Errorf("marge = %s, attendu 0", vue.Chantiers[0].MargeEstimee)
		}
	})
}
