// Package backend construit le jeu de depots correspondant au backend de
// donnees choisi en configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"chantierfin/internal/config"
	applog "chantierfin/internal/log"
	"chantierfin/internal/memory"
	"chantierfin/internal/ports"
	"chantierfin/internal/storage"
)

// ChantierLister fournit la liste des chantiers ayant un budget, pour la
// passe de balayage du worker.
type ChantierLister interface {
	ListChantierIDs(ctx context.Context) ([]int64, error)
}

// Depots regroupe les implementations de ports d'un backend. Cleanup est
// appele a l'arret; il peut etre nil.
type Depots struct {
	Budgets   ports.BudgetRepository
	Achats    ports.AchatRepository
	Avenants  ports.AvenantRepository
	Alertes   ports.AlerteRepository
	Journal   ports.JournalFinancierRepository
	Chantiers ports.ChantierInfo
	CoutsMO   ports.CoutMainOeuvreRepository
	CoutsMat  ports.CoutMaterielRepository
	// Balayage enumere les chantiers a re-verifier periodiquement.
	Balayage ChantierLister
	Cleanup  func() error
}

// Ouvrir instancie les depots du backend configure.
func Ouvrir(cfg *config.Config, logger *applog.Logger) (*Depots, error) {
	switch cfg.DataBackend {
	case "sqlite":
		return ouvrirSQLite(cfg, logger)
	case "memory":
		return ouvrirMemoire(logger), nil
	default:
		return nil, fmt.Errorf("backend de donnees inconnu: %s", cfg.DataBackend)
	}
}

func ouvrirSQLite(cfg *config.Config, logger *applog.Logger) (*Depots, error) {
	store, err := storage.NewStore(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("ouvrir le store sqlite: %w", err)
	}

	logger.Info("Backend sqlite initialise", "db_path", cfg.SQLiteDBPath)

	return &Depots{
		Budgets:   store.Budgets,
		Achats:    store.Achats,
		Avenants:  store.Avenants,
		Alertes:   store.Alertes,
		Journal:   store.Journal,
		Chantiers: store.Chantiers,
		CoutsMO:   store.CoutsMO,
		CoutsMat:  store.CoutsMat,
		Balayage:  store.Budgets,
		Cleanup:   store.Close,
	}, nil
}

// ouvrirMemoire ne porte aucune donnee de main d'oeuvre ni de materiel:
// ces couts valent zero, seuls les achats alimentent le moteur.
func ouvrirMemoire(logger *applog.Logger) *Depots {
	logger.Info("Backend memoire initialise")

	coutZero := &memory.CoutFixe{Montant: decimal.Zero}
	budgets := memory.NewBudgetStore()
	return &Depots{
		Budgets:   budgets,
		Achats:    memory.NewAchatStore(),
		Avenants:  memory.NewAvenantStore(),
		Alertes:   memory.NewAlerteStore(),
		Journal:   memory.NewJournalStore(),
		Chantiers: memory.NewChantierStore(),
		CoutsMO:   coutZero,
		CoutsMat:  coutZero,
		Balayage:  budgets,
	}
}
