package core

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Budget est l'enveloppe financiere d'un chantier (relation un pour un).
// MontantAvenantsHT est un champ derive: il vaut toujours la somme des
// avenants valides du budget et n'est jamais incremente en place: il est
// recalcule depuis les lignes sources a chaque validation.
type Budget struct {
	ID                   int64
	ChantierID           int64
	MontantInitialHT     decimal.Decimal
	MontantAvenantsHT    decimal.Decimal
	SeuilAlertePct       decimal.Decimal
	SeuilValidationAchat decimal.Decimal
	RetenueGarantiePct   decimal.Decimal
	Notes                string
	CreatedAt            time.Time
}

// MontantReviseHT retourne le budget revise: initial + avenants valides.
func (b Budget) MontantReviseHT() decimal.Decimal {
	return b.MontantInitialHT.Add(b.MontantAvenantsHT)
}

// MontantRetenueGarantie retourne la retenue de garantie sur le revise.
func (b Budget) MontantRetenueGarantie() decimal.Decimal {
	return b.MontantReviseHT().Mul(b.RetenueGarantiePct).Div(cent).Round(2)
}

func (b Budget) Validate() error {
	if b.ChantierID <= 0 {
		return &ParametreInvalideError{Champ: "chantier_id", Raison: "doit etre positif"}
	}
	if b.MontantInitialHT.IsNegative() {
		return &ParametreInvalideError{Champ: "montant_initial_ht", Raison: "ne peut pas etre negatif"}
	}
	if b.SeuilAlertePct.IsNegative() || b.SeuilAlertePct.GreaterThan(cent) {
		return &ParametreInvalideError{Champ: "seuil_alerte_pct", Raison: "doit etre entre 0 et 100"}
	}
	if b.RetenueGarantiePct.IsNegative() || b.RetenueGarantiePct.GreaterThan(cent) {
		return &ParametreInvalideError{Champ: "retenue_garantie_pct", Raison: "doit etre entre 0 et 100"}
	}
	return nil
}

// ChantierInfo est la fiche minimale d'un chantier, consommee uniquement
// pour l'affichage des noms dans la consolidation.
type ChantierInfo struct {
	ID     int64
	Nom    string
	Statut string
}

// NomOuDefaut retourne le nom du chantier, ou "Chantier {id}" si absent.
func (c *ChantierInfo) NomOuDefaut(id int64) string {
	if c == nil || strings.TrimSpace(c.Nom) == "" {
		return "Chantier " + strconv.FormatInt(id, 10)
	}
	return c.Nom
}
