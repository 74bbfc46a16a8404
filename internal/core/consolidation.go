package core

import "github.com/shopspring/decimal"

// Classification d'un chantier selon son pourcentage engage.
const (
	ChantierOK          = "ok"
	ChantierAttention   = "attention"
	ChantierDepassement = "depassement"
)

// ClasserChantier applique les seuils fixes: < 80 ok, 80 a 100 attention,
// au dela depassement.
func ClasserChantier(pctEngage decimal.Decimal) string {
	switch {
	case pctEngage.LessThan(decimal.NewFromInt(80)):
		return ChantierOK
	case pctEngage.LessThanOrEqual(cent):
		return ChantierAttention
	default:
		return ChantierDepassement
	}
}

// SyntheseChantier est la ligne par chantier de la vue consolidee. Les
// montants engage/realise ne couvrent ici que les achats, contrairement au
// moteur d'alertes qui ajoute main d'oeuvre et materiel.
type SyntheseChantier struct {
	ChantierID     int64
	NomChantier    string
	MontantRevise  decimal.Decimal
	MontantEngage  decimal.Decimal
	MontantRealise decimal.Decimal
	PctEngage      decimal.Decimal
	PctRealise     decimal.Decimal
	MargeEstimee   decimal.Decimal
	NbAlertes      int
	Statut         string
}

// KPIGlobaux porte les agregats toutes-chantiers de la vue consolidee.
type KPIGlobaux struct {
	NbChantiers         int
	TotalBudget         decimal.Decimal
	TotalEngage         decimal.Decimal
	TotalRealise        decimal.Decimal
	TotalResteADepenser decimal.Decimal
	MargeMoyennePct     decimal.Decimal
	NbOK                int
	NbAttention         int
	NbDepassement       int
}

// VueConsolidee est le resultat complet de la consolidation multi-sites.
// Les classements gardent l'ordre d'entree en cas d'egalite.
type VueConsolidee struct {
	KPIGlobaux   KPIGlobaux
	Chantiers    []SyntheseChantier
	TopRentables []SyntheseChantier
	TopDerives   []SyntheseChantier
}
