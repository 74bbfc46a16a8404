package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "chantierfin_test.db"))
	if err != nil {
		t.Fatalf("ouvrir le store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("montant invalide %q: %v", s, err)
	}
	return v
}

func TestBudgetRepo(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("insertion puis relecture", func(t *testing.T) {
		b := &core.Budget{
			ChantierID:       1,
			MontantInitialHT: d(t, "250000.50"),
			SeuilAlertePct:   d(t, "80"),
			Notes:            "marche initial",
		}
		if err := store.Budgets.Save(ctx, b); err != nil {
			t.Fatalf("enregistrer budget: %v", err)
		}
		if b.ID == 0 {
			t.Fatal("identifiant non renseigne apres insertion")
		}

		relu, err := store.Budgets.FindByChantierID(ctx, 1)
		if err != nil {
			t.Fatalf("relire budget: %v", err)
		}
		if !relu.MontantInitialHT.Equal(d(t, "250000.50")) {
			t.Errorf("montant initial = %s, attendu 250000.50", relu.MontantInitialHT)
		}
		if relu.Notes != "marche initial" {
			t.Errorf("notes = %q", relu.Notes)
		}
	})

	t.Run("mise a jour conserve l'identifiant", func(t *testing.T) {
		b, err := store.Budgets.FindByChantierID(ctx, 1)
		if err != nil {
			t.Fatalf("relire budget: %v", err)
		}
		b.MontantAvenantsHT = d(t, "12000")
		if err := store.Budgets.Save(ctx, b); err != nil {
			t.Fatalf("mettre a jour budget: %v", err)
		}

		relu, err := store.Budgets.FindByID(ctx, b.ID)
		if err != nil {
			t.Fatalf("relire budget: %v", err)
		}
		if !relu.MontantAvenantsHT.Equal(d(t, "12000")) {
			t.Errorf("montant avenants = %s, attendu 12000", relu.MontantAvenantsHT)
		}
	})

	t.Run("chantier sans budget", func(t *testing.T) {
		_, err := store.Budgets.FindByChantierID(ctx, 99)
		if !errors.Is(err, core.ErrIntrouvable) {
			t.Errorf("erreur = %v, attendu ErrIntrouvable", err)
		}
	})

	t.Run("liste des chantiers avec budget", func(t *testing.T) {
		ids, err := store.Budgets.ListChantierIDs(ctx)
		if err != nil {
			t.Fatalf("lister chantiers: %v", err)
		}
		if len(ids) != 1 || ids[0] != 1 {
			t.Errorf("ids = %v, attendu [1]", ids)
		}
	})
}

func TestAchatRepoSomme(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	achats := []struct {
		prix   string
		statut core.StatutAchat
	}{
		{"1000.10", core.StatutValide},
		{"2000.20", core.StatutFacture},
		{"500", core.StatutDemande},
		{"900", core.StatutRefuse},
	}
	for _, cas := range achats {
		a := &core.Achat{
			ChantierID:     1,
			Libelle:        "lot",
			Quantite:       d(t, "1"),
			PrixUnitaireHT: d(t, cas.prix),
			Statut:         cas.statut,
		}
		if err := store.Achats.Save(ctx, a); err != nil {
			t.Fatalf("enregistrer achat: %v", err)
		}
	}

	engage, err := store.Achats.SommeByChantier(ctx, 1, core.StatutsEngages())
	if err != nil {
		t.Fatalf("somme engagee: %v", err)
	}
	if !engage.Equal(d(t, "3000.30")) {
		t.Errorf("engage = %s, attendu 3000.30 (demande et refuse exclus)", engage)
	}

	realise, err := store.Achats.SommeByChantier(ctx, 1, []core.StatutAchat{core.StatutFacture})
	if err != nil {
		t.Fatalf("somme realisee: %v", err)
	}
	if !realise.Equal(d(t, "2000.20")) {
		t.Errorf("realise = %s, attendu 2000.20", realise)
	}
}

func TestAvenantRepo(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	enregistrer := func(montantHT string, statut core.StatutAvenant) *core.AvenantBudgetaire {
		a := &core.AvenantBudgetaire{
			BudgetID:  7,
			Motif:     "travaux supplementaires",
			MontantHT: d(t, montantHT),
			Statut:    statut,
		}
		if err := store.Avenants.Save(ctx, a); err != nil {
			t.Fatalf("enregistrer avenant: %v", err)
		}
		return a
	}

	enregistrer("5000", core.AvenantValide)
	enregistrer("-1200.50", core.AvenantValide)
	brouillon := enregistrer("9999", core.AvenantBrouillon)

	t.Run("somme des seuls avenants valides", func(t *testing.T) {
		somme, err := store.Avenants.SommeAvenantsValides(ctx, 7)
		if err != nil {
			t.Fatalf("somme avenants: %v", err)
		}
		if !somme.Equal(d(t, "3799.50")) {
			t.Errorf("somme = %s, attendu 3799.50", somme)
		}
	})

	t.Run("compteur par budget", func(t *testing.T) {
		n, err := store.Avenants.CountByBudgetID(ctx, 7)
		if err != nil {
			t.Fatalf("compter avenants: %v", err)
		}
		if n != 3 {
			t.Errorf("compteur = %d, attendu 3", n)
		}
	})

	t.Run("suppression", func(t *testing.T) {
		if err := store.Avenants.Delete(ctx, brouillon.ID); err != nil {
			t.Fatalf("supprimer avenant: %v", err)
		}
		err := store.Avenants.Delete(ctx, brouillon.ID)
		if !errors.Is(err, core.ErrIntrouvable) {
			t.Errorf("seconde suppression: erreur = %v, attendu ErrIntrouvable", err)
		}
	})
}

func TestAlerteRepoAcquitter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a := &core.AlerteDepassement{
		ChantierID:         3,
		BudgetID:           1,
		TypeAlerte:         core.AlerteSeuilEngage,
		Message:            "seuil d'engagement atteint",
		PourcentageAtteint: d(t, "85"),
		SeuilConfigure:     d(t, "80"),
		MontantBudgetHT:    d(t, "100000"),
		MontantAtteintHT:   d(t, "85000"),
	}
	if err := store.Alertes.Save(ctx, a); err != nil {
		t.Fatalf("enregistrer alerte: %v", err)
	}

	t.Run("premier acquittement", func(t *testing.T) {
		if err := store.Alertes.Acquitter(ctx, a.ID, "directeur"); err != nil {
			t.Fatalf("acquitter: %v", err)
		}
		relu, err := store.Alertes.FindByID(ctx, a.ID)
		if err != nil {
			t.Fatalf("relire alerte: %v", err)
		}
		if !relu.EstAcquittee || relu.AcquitteePar != "directeur" || relu.AcquitteeAt == nil {
			t.Errorf("alerte non marquee acquittee: %+v", relu)
		}
	})

	t.Run("second acquittement en etat terminal", func(t *testing.T) {
		err := store.Alertes.Acquitter(ctx, a.ID, "autre")
		if !errors.Is(err, core.ErrEtatTerminal) {
			t.Fatalf("erreur = %v, attendu ErrEtatTerminal", err)
		}
		relu, err := store.Alertes.FindByID(ctx, a.ID)
		if err != nil {
			t.Fatalf("relire alerte: %v", err)
		}
		if relu.AcquitteePar != "directeur" {
			t.Errorf("acquittee_par = %q, le second passage ne doit rien changer", relu.AcquitteePar)
		}
	})

	t.Run("alerte inconnue", func(t *testing.T) {
		err := store.Alertes.Acquitter(ctx, 999, "directeur")
		if !errors.Is(err, core.ErrIntrouvable) {
			t.Errorf("erreur = %v, attendu ErrIntrouvable", err)
		}
	})

	t.Run("filtre des non acquittees", func(t *testing.T) {
		autre := &core.AlerteDepassement{
			ChantierID:         3,
			BudgetID:           1,
			TypeAlerte:         core.AlerteSeuilRealise,
			Message:            "seuil realise atteint",
			PourcentageAtteint: d(t, "82"),
			SeuilConfigure:     d(t, "80"),
			MontantBudgetHT:    d(t, "100000"),
			MontantAtteintHT:   d(t, "82000"),
		}
		if err := store.Alertes.Save(ctx, autre); err != nil {
			t.Fatalf("enregistrer alerte: %v", err)
		}

		toutes, err := store.Alertes.FindByChantierID(ctx, 3)
		if err != nil {
			t.Fatalf("lister alertes: %v", err)
		}
		if len(toutes) != 2 {
			t.Fatalf("alertes = %d, attendu 2", len(toutes))
		}

		ouvertes, err := store.Alertes.FindNonAcquittees(ctx, 3)
		if err != nil {
			t.Fatalf("lister non acquittees: %v", err)
		}
		if len(ouvertes) != 1 || ouvertes[0].TypeAlerte != core.AlerteSeuilRealise {
			t.Errorf("non acquittees = %+v, attendu la seule alerte seuil_realise", ouvertes)
		}
	})
}

func TestCoutsChantier(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	insertions := []struct {
		requete string
		args    []any
	}{
		{`INSERT INTO couts_main_oeuvre (chantier_id, heures, taux_horaire_ht, created_at) VALUES (?, ?, ?, ?)`,
			[]any{5, "35.5", "42", time.Now()}},
		{`INSERT INTO couts_main_oeuvre (chantier_id, heures, taux_horaire_ht, created_at) VALUES (?, ?, ?, ?)`,
			[]any{5, "10", "38.50", time.Now()}},
		{`INSERT INTO couts_materiel (chantier_id, libelle, montant_ht, created_at) VALUES (?, ?, ?, ?)`,
			[]any{5, "location grue", "1200.75", time.Now()}},
	}
	for _, ins := range insertions {
		if _, err := store.db.ExecContext(ctx, ins.requete, ins.args...); err != nil {
			t.Fatalf("inserer cout: %v", err)
		}
	}

	mo, err := store.CoutsMO.CalculerCoutChantier(ctx, 5)
	if err != nil {
		t.Fatalf("cout main oeuvre: %v", err)
	}
	// 35.5 x 42 + 10 x 38.50 = 1491 + 385
	if !mo.Equal(d(t, "1876.00")) {
		t.Errorf("cout main oeuvre = %s, attendu 1876.00", mo)
	}

	mat, err := store.CoutsMat.CalculerCoutChantier(ctx, 5)
	if err != nil {
		t.Fatalf("cout materiel: %v", err)
	}
	if !mat.Equal(d(t, "1200.75")) {
		t.Errorf("cout materiel = %s, attendu 1200.75", mat)
	}

	t.Run("chantier sans pointage", func(t *testing.T) {
		mo, err := store.CoutsMO.CalculerCoutChantier(ctx, 99)
		if err != nil {
			t.Fatalf("cout main oeuvre: %v", err)
		}
		if !mo.IsZero() {
			t.Errorf("cout = %s, attendu zero", mo)
		}
	})
}

func TestChantierRepo(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.db.ExecContext(ctx,
		`INSERT INTO chantiers (id, nom, statut) VALUES (?, ?, ?)`,
		1, "Tour Horizon", "en_cours"); err != nil {
		t.Fatalf("inserer chantier: %v", err)
	}

	info, err := store.Chantiers.GetChantierInfo(ctx, 1)
	if err != nil {
		t.Fatalf("fiche chantier: %v", err)
	}
	if info.Nom != "Tour Horizon" {
		t.Errorf("nom = %q, attendu Tour Horizon", info.Nom)
	}

	_, err = store.Chantiers.GetChantierInfo(ctx, 2)
	if !errors.Is(err, core.ErrIntrouvable) {
		t.Errorf("erreur = %v, attendu ErrIntrouvable", err)
	}
}
