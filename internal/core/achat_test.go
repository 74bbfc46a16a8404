package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestChangerStatut_TransitionsAutorisees(t *testing.T) {
	cas := []struct {
		de   StatutAchat
		vers StatutAchat
	}{
		{StatutDemande, StatutValide},
		{StatutDemande, StatutRefuse},
		{StatutValide, StatutCommande},
		{StatutValide, StatutRefuse},
		{StatutCommande, StatutLivre},
		{StatutLivre, StatutFacture},
	}

	for _, c := range cas {
		t.Run(string(c.de)+"_vers_"+string(c.vers), func(t *testing.T) {
			a := Achat{Statut: c.de}
			if err := a.ChangerStatut(c.vers); err != nil {
				t.Fatalf("transition %s -> %s devrait passer: %v", c.de, c.vers, err)
			}
			if a.Statut != c.vers {
				t.Errorf("statut = %s, attendu %s", a.Statut, c.vers)
			}
		})
	}
}

func TestChangerStatut_TransitionsInterdites(t *testing.T) {
	cas := []struct {
		de   StatutAchat
		vers StatutAchat
	}{
		{StatutCommande, StatutFacture}, // pas de saut livraison
		{StatutDemande, StatutCommande},
		{StatutDemande, StatutFacture},
		{StatutCommande, StatutRefuse},
		{StatutLivre, StatutRefuse},
		{StatutRefuse, StatutValide},
		{StatutFacture, StatutDemande},
		{StatutValide, StatutValide},
	}

	for _, c := range cas {
		t.Run(string(c.de)+"_vers_"+string(c.vers), func(t *testing.T) {
			a := Achat{Statut: c.de}
			err := a.ChangerStatut(c.vers)
			if err == nil {
				t.Fatalf("transition %s -> %s devrait echouer", c.de, c.vers)
			}
			if !errors.Is(err, ErrTransitionInvalide) {
				t.Errorf("erreur = %v, attendu ErrTransitionInvalide", err)
			}
			var te *TransitionInvalideError
			if !errors.As(err, &te) {
				t.Fatalf("erreur devrait etre TransitionInvalideError, got %T", err)
			}
			if te.De != c.de || te.Vers != c.vers {
				t.Errorf("erreur porte %s -> %s, attendu %s -> %s", te.De, te.Vers, c.de, c.vers)
			}
			if a.Statut != c.de {
				t.Errorf("statut mute a %s malgre l'echec", a.Statut)
			}
		})
	}
}

func TestStatutAchat_EstFinalEtActif(t *testing.T) {
	finals := map[StatutAchat]bool{
		StatutDemande:  false,
		StatutValide:   false,
		StatutCommande: false,
		StatutLivre:    false,
		StatutRefuse:   true,
		StatutFacture:  true,
	}
	for s, attendu := range finals {
		if s.EstFinal() != attendu {
			t.Errorf("%s.EstFinal() = %v, attendu %v", s, s.EstFinal(), attendu)
		}
	}

	// Seul refuse est inactif; facture reste pertinent budgetairement.
	for s := range finals {
		attendu := s != StatutRefuse
		if s.EstActif() != attendu {
			t.Errorf("%s.EstActif() = %v, attendu %v", s, s.EstActif(), attendu)
		}
	}
}

func TestStatutsEngages(t *testing.T) {
	engages := StatutsEngages()
	if len(engages) != 4 {
		t.Fatalf("StatutsEngages() = %v, attendu 4 statuts", engages)
	}
	for _, s := range engages {
		if !s.EstEngage() {
			t.Errorf("%s devrait etre engage", s)
		}
	}
	if StatutDemande.EstEngage() || StatutRefuse.EstEngage() {
		t.Error("demande et refuse ne doivent pas compter comme engages")
	}
}

func TestAchat_MontantHT(t *testing.T) {
	a := Achat{
		Quantite:       decimal.RequireFromString("3"),
		PrixUnitaireHT: decimal.RequireFromString("19.995"),
	}
	if got := a.MontantHT(); got.StringFixed(2) != "59.99" {
		t.Errorf("MontantHT() = %s, attendu 59.99", got)
	}
}
