package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chantierfin/internal/amqp"
	"chantierfin/internal/backend"
	"chantierfin/internal/config"
	apphttp "chantierfin/internal/http"
	applog "chantierfin/internal/log"
	"chantierfin/internal/ports"
	"chantierfin/internal/services"
)

func main() {
	// .env pour le developpement local; absent en production.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
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

	// Le bus est optionnel: sans AMQP les mutations ne sont simplement pas
	// diffusees, le worker de verification tourne alors sur sa seule horloge.
	var bus ports.EventBus
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Client AMQP indisponible, evenements non publies", "error", err)
		} else {
			defer client.Close()
			bus = client
			logger.Info("Client AMQP initialise",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := apphttp.Services{
		Avenants:      services.NewAvenantService(depots.Budgets, depots.Avenants, depots.Journal, bus),
		Achats:        services.NewAchatService(depots.Budgets, depots.Achats, depots.Journal, bus),
		Alertes:       services.NewAlerteService(depots.Budgets, depots.Achats, depots.Alertes, depots.CoutsMO, depots.CoutsMat, depots.Journal, bus),
		Consolidation: services.NewConsolidationService(depots.Budgets, depots.Achats, depots.Alertes, depots.Chantiers),
		Evolution:     services.NewEvolutionService(depots.Budgets, depots.Achats),
		AlerteRepo:    depots.Alertes,
	}
	server := apphttp.NewServer(":"+cfg.Port, svc, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Signal d'arret recu", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Echec d'arret du serveur", "error", err)
		}
		cancel()
	}()

	logger.Info("Demarrage de chantierfin",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", bus != nil)
	if err := server.Start(); err != nil {
		logger.Error("Erreur serveur", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Serveur arrete proprement")
}
