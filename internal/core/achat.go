package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatutAchat est le statut d'un engagement d'achat.
type StatutAchat string

const (
	StatutDemande  StatutAchat = "demande"
	StatutValide   StatutAchat = "valide"
	StatutCommande StatutAchat = "commande"
	StatutLivre    StatutAchat = "livre"
	StatutFacture  StatutAchat = "facture"
	StatutRefuse   StatutAchat = "refuse"
)

// transitionsAutorisees est l'unique table d'adjacence du cycle de vie.
// Toute transition absente de cette table echoue, jamais ignoree en silence.
var transitionsAutorisees = map[StatutAchat][]StatutAchat{
	StatutDemande:  {StatutValide, StatutRefuse},
	StatutValide:   {StatutCommande, StatutRefuse},
	StatutCommande: {StatutLivre},
	StatutLivre:    {StatutFacture},
	StatutRefuse:   {},
	StatutFacture:  {},
}

// statutsEngages couvre tout engagement budgetaire, facture inclus.
var statutsEngages = []StatutAchat{StatutValide, StatutCommande, StatutLivre, StatutFacture}

// StatutsEngages retourne les statuts comptant dans le montant engage.
func StatutsEngages() []StatutAchat {
	return append([]StatutAchat(nil), statutsEngages...)
}

// EstValide retourne true si s est un statut connu.
func (s StatutAchat) EstValide() bool {
	_, ok := transitionsAutorisees[s]
	return ok
}

// EstFinal retourne true pour les statuts terminaux (refuse, facture).
func (s StatutAchat) EstFinal() bool {
	return s == StatutRefuse || s == StatutFacture
}

// EstActif retourne true pour tout statut pertinent budgetairement,
// c'est a dire tout sauf refuse; facture reste actif.
func (s StatutAchat) EstActif() bool {
	return s != StatutRefuse
}

// EstEngage retourne true si le statut compte dans le montant engage.
func (s StatutAchat) EstEngage() bool {
	for _, e := range statutsEngages {
		if s == e {
			return true
		}
	}
	return false
}

// PeutTransitionnerVers teste la table d'adjacence sans muter.
func (s StatutAchat) PeutTransitionnerVers(vers StatutAchat) bool {
	for _, v := range transitionsAutorisees[s] {
		if v == vers {
			return true
		}
	}
	return false
}

// Achat est un engagement d'achat progressant de la demande a la facture.
// CreatedAt a zero signifie "date inconnue": l'achat est alors exclu des
// courbes d'evolution.
type Achat struct {
	ID             int64
	ChantierID     int64
	Libelle        string
	Quantite       decimal.Decimal
	PrixUnitaireHT decimal.Decimal
	Statut         StatutAchat
	CreatedAt      time.Time
}

// MontantHT retourne quantite x prix unitaire, arrondi a 2 decimales.
func (a Achat) MontantHT() decimal.Decimal {
	return a.Quantite.Mul(a.PrixUnitaireHT).Round(2)
}

// ChangerStatut applique une transition du cycle de vie. Hors table,
// l'achat reste inchange et l'erreur est une TransitionInvalideError.
func (a *Achat) ChangerStatut(vers StatutAchat) error {
	if !a.Statut.PeutTransitionnerVers(vers) {
		return &TransitionInvalideError{De: a.Statut, Vers: vers}
	}
	a.Statut = vers
	return nil
}

func (a Achat) Validate() error {
	if a.ChantierID <= 0 {
		return &ParametreInvalideError{Champ: "chantier_id", Raison: "doit etre positif"}
	}
	if strings.TrimSpace(a.Libelle) == "" {
		return &ParametreInvalideError{Champ: "libelle", Raison: "ne peut pas etre vide"}
	}
	if !a.Quantite.IsPositive() {
		return &ParametreInvalideError{Champ: "quantite", Raison: "doit etre positive"}
	}
	if a.PrixUnitaireHT.IsNegative() {
		return &ParametreInvalideError{Champ: "prix_unitaire_ht", Raison: "ne peut pas etre negatif"}
	}
	if !a.Statut.EstValide() {
		return &ParametreInvalideError{Champ: "statut", Raison: "statut inconnu"}
	}
	return nil
}
