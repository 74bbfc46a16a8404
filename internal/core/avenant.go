package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatutAvenant est le statut d'un avenant budgetaire.
type StatutAvenant string

const (
	AvenantBrouillon StatutAvenant = "brouillon"
	AvenantValide    StatutAvenant = "valide"
)

// AvenantBudgetaire est un addendum modifiant le budget d'un chantier.
// Cycle de vie: brouillon -> valide (terminal, immuable). Supprimable
// uniquement en brouillon.
type AvenantBudgetaire struct {
	ID                int64
	BudgetID          int64
	Numero            string
	Motif             string
	MontantHT         decimal.Decimal
	ImpactDescription string
	Statut            StatutAvenant
	CreatedAt         time.Time
	ValidatedBy       string
}

// NumeroAvenant construit le code "AVN-{annee}-{seq:02d}". La sequence est
// le compteur monotone par budget; elle ne se remet pas a zero quand
// l'annee change, seul le texte porte l'annee courante.
func NumeroAvenant(annee int, seq int64) string {
	return fmt.Sprintf("AVN-%d-%02d", annee, seq)
}

// EstBrouillon retourne true tant que l'avenant n'est pas valide.
func (a AvenantBudgetaire) EstBrouillon() bool {
	return a.Statut == AvenantBrouillon
}

func (a AvenantBudgetaire) Validate() error {
	if a.BudgetID <= 0 {
		return &ParametreInvalideError{Champ: "budget_id", Raison: "doit etre positif"}
	}
	if strings.TrimSpace(a.Motif) == "" {
		return &ParametreInvalideError{Champ: "motif", Raison: "ne peut pas etre vide"}
	}
	if a.MontantHT.IsZero() {
		return &ParametreInvalideError{Champ: "montant_ht", Raison: "ne peut pas etre nul"}
	}
	return nil
}
