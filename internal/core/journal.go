package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry est une ligne de la piste d'audit financiere, ajoutee a
// chaque operation mutante (creation/validation d'avenant, changement de
// statut d'achat, creation/acquittement d'alerte). Append-only.
type JournalEntry struct {
	ID          int64
	ChantierID  int64
	Operation   string
	Entite      string
	EntiteID    int64
	MontantHT   decimal.Decimal
	Utilisateur string
	CreatedAt   time.Time
}
