package core

import "github.com/shopspring/decimal"

// PointEvolution est un point mensuel de la courbe prevu/engage/realise.
// Les series cumulees sont non decroissantes par construction.
type PointEvolution struct {
	Annee         int
	Mois          int
	PrevuCumule   decimal.Decimal
	EngageCumule  decimal.Decimal
	RealiseCumule decimal.Decimal
}
