// Package core contient le domaine financier: budgets, achats, avenants,
// alertes et les aides de calcul monetaire partagees.
//
// Tous les montants sont des decimaux exacts (shopspring/decimal); les
// arrondis se font a 2 decimales, arrondi commercial.
package core

import (
	"github.com/shopspring/decimal"
)

var cent = decimal.NewFromInt(100)

// Arrondi2 arrondit un montant a 2 decimales (demi-superieur).
func Arrondi2(m decimal.Decimal) decimal.Decimal {
	return m.Round(2)
}

// Pourcentage retourne part/total*100 arrondi a 2 decimales.
// Un total nul donne 0, jamais une division par zero.
func Pourcentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(cent).Round(2)
}

// MontantTTC applique un taux de TVA forfaitaire a un montant HT.
func MontantTTC(ht, tauxTVA decimal.Decimal) decimal.Decimal {
	return ht.Mul(decimal.NewFromInt(1).Add(tauxTVA.Div(cent))).Round(2)
}

// FormatMontant rend un montant sous forme textuelle a 2 decimales.
func FormatMontant(m decimal.Decimal) string {
	return m.StringFixed(2)
}
