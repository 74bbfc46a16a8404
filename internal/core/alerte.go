package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// TypeAlerte identifie la regle de depassement qui a declenche l'alerte.
type TypeAlerte string

const (
	AlerteSeuilEngage      TypeAlerte = "seuil_engage"
	AlerteSeuilRealise     TypeAlerte = "seuil_realise"
	AlertePerteTerminaison TypeAlerte = "perte_terminaison"
)

// AlerteDepassement est un avertissement emis par le moteur d'alertes.
// Creee uniquement par VerifierDepassement; la seule mutation possible est
// l'acquittement, a sens unique.
type AlerteDepassement struct {
	ID                 int64
	ChantierID         int64
	BudgetID           int64
	TypeAlerte         TypeAlerte
	Message            string
	PourcentageAtteint decimal.Decimal
	SeuilConfigure     decimal.Decimal
	MontantBudgetHT    decimal.Decimal
	MontantAtteintHT   decimal.Decimal
	EstAcquittee       bool
	AcquitteePar       string
	AcquitteeAt        *time.Time
	CreatedAt          time.Time
}

// Acquitter marque l'alerte comme traitee. Un second acquittement echoue
// avec EtatTerminalError et laisse l'alerte inchangee.
func (a *AlerteDepassement) Acquitter(par string, quand time.Time) error {
	if a.EstAcquittee {
		return &EtatTerminalError{Entite: "alerte", ID: a.ID, Etat: "acquittee"}
	}
	a.EstAcquittee = true
	a.AcquitteePar = par
	a.AcquitteeAt = &quand
	return nil
}
