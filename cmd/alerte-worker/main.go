package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"chantierfin/internal/amqp"
	"chantierfin/internal/backend"
	"chantierfin/internal/config"
	applog "chantierfin/internal/log"
	"chantierfin/internal/services"
	"chantierfin/internal/sheets"
	gsheet "chantierfin/internal/sheets/google"
	sheetsmem "chantierfin/internal/sheets/memory"
	"chantierfin/internal/worker"
)

// listeFixe sert une liste de chantiers figee par la configuration.
type listeFixe []int64

func (l listeFixe) ListChantierIDs(context.Context) ([]int64, error) {
	return l, nil
}

func main() {
	// .env pour le developpement local; absent en production.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration invalide", "error", err)
		os.Exit(1)
	}

	depots, err := backend.Ouvrir(cfg, logger)
	if err != nil {
		logger.Error("Echec d'ouverture du backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if depots.Cleanup != nil {
		defer depots.Cleanup()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Sans spreadsheet configure, les instantanes restent en memoire: le
	// worker tourne alors uniquement pour les alertes.
	var rapport sheets.RapportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewClient(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			logger.Error("Echec d'initialisation du client Google Sheets", "error", err)
			os.Exit(1)
		}
		rapport = client
		logger.Info("Export du rapport vers Google Sheets",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		rapport = sheetsmem.New()
		logger.Info("Aucun spreadsheet configure, rapport garde en memoire")
	}

	alerteSvc := services.NewAlerteService(depots.Budgets, depots.Achats, depots.Alertes,
		depots.CoutsMO, depots.CoutsMat, depots.Journal, nil)
	consolidationSvc := services.NewConsolidationService(depots.Budgets, depots.Achats,
		depots.Alertes, depots.Chantiers)

	// RAPPORT_CHANTIER_IDS restreint la passe a une liste fixe; a defaut,
	// tous les chantiers ayant un budget sont balayes.
	var balayage worker.ChantierLister = depots.Balayage
	if len(cfg.RapportChantierIDs) > 0 {
		balayage = listeFixe(cfg.RapportChantierIDs)
		logger.Info("Balayage restreint a une liste fixe", "chantiers", cfg.RapportChantierIDs)
	}

	verif := worker.NewVerificationWorker(alerteSvc, consolidationSvc, balayage,
		rapport, cfg.VerificationInterval, cfg.VerificationWorkers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return verif.Run(gctx)
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Echec d'initialisation du client AMQP", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		logger.Info("Consommation des evenements financiers",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)

		g.Go(func() error {
			return client.Consume(gctx, verif.HandleEvenement)
		})
	} else {
		logger.Info("AMQP non configure, verification sur horloge uniquement",
			"interval", cfg.VerificationInterval)
	}

	logger.Info("Demarrage du worker de verification",
		"backend", cfg.DataBackend,
		"interval", cfg.VerificationInterval,
		"workers", cfg.VerificationWorkers)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Arret du worker sur erreur", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker arrete proprement")
}
