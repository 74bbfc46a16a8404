// Package worker porte la passe periodique de verification budgetaire et
// le traitement des evenements financiers recus par AMQP.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"chantierfin/internal/core"
	"chantierfin/internal/services"
	"chantierfin/internal/sheets"
)

// ChantierLister fournit la liste des chantiers a balayer.
type ChantierLister interface {
	ListChantierIDs(ctx context.Context) ([]int64, error)
}

// VerificationWorker reagit aux evenements de mutation en re-verifiant le
// chantier touche, et balaie periodiquement tous les chantiers connus.
// Chaque passe de balayage exporte ensuite un instantane consolide.
type VerificationWorker struct {
	alertes       *services.AlerteService
	consolidation *services.ConsolidationService
	chantiers     ChantierLister
	rapport       sheets.RapportWriter
	interval      time.Duration
	workers       int
}

func NewVerificationWorker(alertes *services.AlerteService, consolidation *services.ConsolidationService, chantiers ChantierLister, rapport sheets.RapportWriter, interval time.Duration, workers int) *VerificationWorker {
	if workers < 1 {
		workers = 1
	}
	return &VerificationWorker{
		alertes:       alertes,
		consolidation: consolidation,
		chantiers:     chantiers,
		rapport:       rapport,
		interval:      interval,
		workers:       workers,
	}
}

// HandleEvenement traite un evenement financier recu du bus. Les alertes
// n'engendrent pas de re-verification: elles sont deja le produit d'une
// passe, les re-verifier bouclerait.
func (w *VerificationWorker) HandleEvenement(ctx context.Context, ev core.EvenementFinancier) error {
	switch ev.Type {
	case core.EvenementAvenantValide, core.EvenementAchatStatutChange:
	case core.EvenementAlerteCreee:
		return nil
	default:
		slog.WarnContext(ctx, "Type d'evenement inconnu, ignore", "type", ev.Type)
		return nil
	}

	creees, err := w.alertes.VerifierDepassement(ctx, ev.ChantierID)
	if err != nil {
		if errors.Is(err, core.ErrIntrouvable) {
			slog.WarnContext(ctx, "Evenement pour un chantier sans budget, ignore",
				"type", ev.Type, "chantier_id", ev.ChantierID)
			return nil
		}
		return fmt.Errorf("verifier chantier %d: %w", ev.ChantierID, err)
	}

	slog.InfoContext(ctx, "Chantier re-verifie sur evenement",
		"type", ev.Type,
		"chantier_id", ev.ChantierID,
		"alertes_creees", len(creees))
	return nil
}

// Run balaie tous les chantiers a intervalle fixe jusqu'a annulation du
// contexte, avec une premiere passe immediate.
func (w *VerificationWorker) Run(ctx context.Context) error {
	if err := w.Balayer(ctx); err != nil {
		slog.ErrorContext(ctx, "Echec de la passe initiale", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Arret du worker de verification", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.Balayer(ctx); err != nil {
				slog.ErrorContext(ctx, "Echec de la passe de verification", "error", err)
			}
		}
	}
}

// Balayer verifie tous les chantiers connus en parallele borne, puis
// exporte l'instantane consolide. Un chantier en echec n'empeche pas les
// autres: l'erreur est logguee et la passe continue.
func (w *VerificationWorker) Balayer(ctx context.Context) error {
	ids, err := w.chantiers.ListChantierIDs(ctx)
	if err != nil {
		return fmt.Errorf("lister chantiers: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	var total int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	compte := make([]int, len(ids))
	for i, id := range ids {
		g.Go(func() error {
			creees, err := w.alertes.VerifierDepassement(gctx, id)
			if err != nil {
				slog.ErrorContext(gctx, "Echec de verification d'un chantier",
					"chantier_id", id, "error", err)
				return nil
			}
			compte[i] = len(creees)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("balayer chantiers: %w", err)
	}
	for _, n := range compte {
		total += int64(n)
	}

	slog.InfoContext(ctx, "Passe de verification terminee",
		"chantiers", len(ids),
		"alertes_creees", total)

	return w.exporterRapport(ctx, ids)
}

// exporterRapport est best-effort: le rapport manque une passe, la
// suivante le rattrape.
func (w *VerificationWorker) exporterRapport(ctx context.Context, ids []int64) error {
	if w.rapport == nil {
		return nil
	}

	vue, err := w.consolidation.Consolider(ctx, ids)
	if err != nil {
		return fmt.Errorf("consolider pour le rapport: %w", err)
	}

	ref, err := w.rapport.Append(ctx, *vue)
	if err != nil {
		slog.ErrorContext(ctx, "Echec d'export du rapport consolide", "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Instantane consolide exporte", "ref", ref)
	return nil
}
