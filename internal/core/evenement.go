package core

import "time"

// Types d'evenements publies sur le bus apres une mutation.
const (
	EvenementAvenantValide     = "avenant_valide"
	EvenementAchatStatutChange = "achat_statut_change"
	EvenementAlerteCreee       = "alerte_creee"
)

// EvenementFinancier est l'evenement de domaine publie en best-effort:
// un echec de publication ne remet jamais en cause l'etat persiste ni la
// ligne de journal, la prochaine passe de verification rattrape.
type EvenementFinancier struct {
	Type       string    `json:"type"`
	ChantierID int64     `json:"chantier_id"`
	Entite     string    `json:"entite"`
	EntiteID   int64     `json:"entite_id"`
	MontantHT  string    `json:"montant_ht,omitempty"`
	Horodatage time.Time `json:"horodatage"`
}
