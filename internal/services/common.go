package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"
	"chantierfin/internal/ports"
)

// journaliser ecrit une ligne d'audit. Un echec est loggue mais ne fait
// pas echouer l'operation appelante: la mutation metier est deja faite.
func journaliser(ctx context.Context, journal ports.JournalFinancierRepository, chantierID int64, operation, entite string, entiteID int64, montant decimal.Decimal, utilisateur string, quand time.Time) {
	if journal == nil {
		return
	}
	entry := &core.JournalEntry{
		ChantierID:  chantierID,
		Operation:   operation,
		Entite:      entite,
		EntiteID:    entiteID,
		MontantHT:   montant,
		Utilisateur: utilisateur,
		CreatedAt:   quand,
	}
	if err := journal.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "Echec d'ecriture au journal financier",
			"operation", operation, "entite", entite, "entite_id", entiteID, "error", err)
	}
}

// publier est best-effort: un echec de livraison n'annule jamais l'etat
// persiste ni la ligne de journal, la prochaine passe rattrape.
func publier(ctx context.Context, bus ports.EventBus, ev core.EvenementFinancier) {
	if bus == nil {
		slog.WarnContext(ctx, "Bus d'evenements absent, publication ignoree", "type", ev.Type)
		return
	}
	if err := bus.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Echec de publication d'evenement",
			"type", ev.Type, "entite", ev.Entite, "entite_id", ev.EntiteID, "error", err)
	}
}
