package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"chantierfin/internal/cache"
	"chantierfin/internal/core"
	"chantierfin/internal/ports"
)

const (
	tailleClassement     = 3
	consolidationWorkers = 4
)

// ConsolidationService produit la vue financiere consolidee multi-sites.
// Les montants engage/realise de cette vue ne couvrent que les achats; la
// main d'oeuvre et le materiel restent l'affaire du moteur d'alertes.
type ConsolidationService struct {
	budgets   ports.BudgetRepository
	achats    ports.AchatRepository
	alertes   ports.AlerteRepository
	chantiers ports.ChantierInfo
	noms      *cache.LRU[string]
}

func NewConsolidationService(budgets ports.BudgetRepository, achats ports.AchatRepository, alertes ports.AlerteRepository, chantiers ports.ChantierInfo) *ConsolidationService {
	return &ConsolidationService{
		budgets:   budgets,
		achats:    achats,
		alertes:   alertes,
		chantiers: chantiers,
		noms:      cache.NewLRU[string](256, 5*time.Minute),
	}
}

// Consolider agrege les KPI des chantiers accessibles. Une liste vide donne
// un resultat a zero, pas une erreur; un chantier sans budget est ignore en
// silence. Les syntheses gardent l'ordre d'entree, y compris dans les
// classements en cas d'egalite.
func (s *ConsolidationService) Consolider(ctx context.Context, chantierIDs []int64) (*core.VueConsolidee, error) {
	vue := &core.VueConsolidee{
		Chantiers:    []core.SyntheseChantier{},
		TopRentables: []core.SyntheseChantier{},
		TopDerives:   []core.SyntheseChantier{},
	}
	if len(chantierIDs) == 0 {
		return vue, nil
	}

	// Fan-out borne par chantier; resultats ranges par index d'entree pour
	// preserver l'ordre.
	resultats := make([]*core.SyntheseChantier, len(chantierIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(consolidationWorkers)
	for i, id := range chantierIDs {
		g.Go(func() error {
			synthese, err := s.syntheseChantier(gctx, id)
			if err != nil {
				return err
			}
			resultats[i] = synthese
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("consolider chantiers: %w", err)
	}

	marges := decimal.Zero
	for _, r := range resultats {
		if r == nil {
			continue
		}
		vue.Chantiers = append(vue.Chantiers, *r)
		vue.KPIGlobaux.TotalBudget = vue.KPIGlobaux.TotalBudget.Add(r.MontantRevise)
		vue.KPIGlobaux.TotalEngage = vue.KPIGlobaux.TotalEngage.Add(r.MontantEngage)
		vue.KPIGlobaux.TotalRealise = vue.KPIGlobaux.TotalRealise.Add(r.MontantRealise)
		marges = marges.Add(r.MargeEstimee)
		switch r.Statut {
		case core.ChantierOK:
			vue.KPIGlobaux.NbOK++
		case core.ChantierAttention:
			vue.KPIGlobaux.NbAttention++
		case core.ChantierDepassement:
			vue.KPIGlobaux.NbDepassement++
		}
	}

	n := len(vue.Chantiers)
	vue.KPIGlobaux.NbChantiers = n
	vue.KPIGlobaux.TotalResteADepenser = vue.KPIGlobaux.TotalBudget.Sub(vue.KPIGlobaux.TotalEngage)
	if n > 0 {
		// Moyenne arithmetique non ponderee des marges par chantier.
		vue.KPIGlobaux.MargeMoyennePct = marges.Div(decimal.NewFromInt(int64(n))).Round(2)
	}

	vue.TopRentables = classer(vue.Chantiers, func(a, b core.SyntheseChantier) bool {
		return a.MargeEstimee.GreaterThan(b.MargeEstimee)
	})
	vue.TopDerives = classer(vue.Chantiers, func(a, b core.SyntheseChantier) bool {
		return a.PctEngage.GreaterThan(b.PctEngage)
	})

	slog.InfoContext(ctx, "Consolidation calculee",
		"chantiers_demandes", len(chantierIDs),
		"chantiers_avec_budget", n)

	return vue, nil
}

// syntheseChantier retourne nil (sans erreur) quand le chantier n'a pas de
// budget: la consolidation l'ignore en silence.
func (s *ConsolidationService) syntheseChantier(ctx context.Context, chantierID int64) (*core.SyntheseChantier, error) {
	budget, err := s.budgets.FindByChantierID(ctx, chantierID)
	if err != nil {
		if errors.Is(err, core.ErrIntrouvable) {
			return nil, nil
		}
		return nil, fmt.Errorf("chercher budget du chantier %d: %w", chantierID, err)
	}

	revise := budget.MontantReviseHT()

	engage, err := s.achats.SommeByChantier(ctx, chantierID, core.StatutsEngages())
	if err != nil {
		return nil, fmt.Errorf("somme engagee du chantier %d: %w", chantierID, err)
	}
	realise, err := s.achats.SommeByChantier(ctx, chantierID, []core.StatutAchat{core.StatutFacture})
	if err != nil {
		return nil, fmt.Errorf("somme realisee du chantier %d: %w", chantierID, err)
	}

	nonAcquittees, err := s.alertes.FindNonAcquittees(ctx, chantierID)
	if err != nil {
		return nil, fmt.Errorf("alertes non acquittees du chantier %d: %w", chantierID, err)
	}

	pctEngage := core.Pourcentage(engage, revise)
	marge := decimal.Zero
	if !revise.IsZero() {
		marge = decimal.NewFromInt(100).Sub(pctEngage).Round(2)
	}

	return &core.SyntheseChantier{
		ChantierID:     chantierID,
		NomChantier:    s.nomChantier(ctx, chantierID),
		MontantRevise:  revise.Round(2),
		MontantEngage:  engage.Round(2),
		MontantRealise: realise.Round(2),
		PctEngage:      pctEngage,
		PctRealise:     core.Pourcentage(realise, revise),
		MargeEstimee:   marge,
		NbAlertes:      len(nonAcquittees),
		Statut:         core.ClasserChantier(pctEngage),
	}, nil
}

// nomChantier resout le nom d'affichage via le port ChantierInfo, avec un
// repli "Chantier {id}" et un cache LRU pour eviter de marteler le port.
func (s *ConsolidationService) nomChantier(ctx context.Context, chantierID int64) string {
	cle := strconv.FormatInt(chantierID, 10)
	if nom, ok := s.noms.Get(cle); ok {
		return nom
	}

	var info *core.ChantierInfo
	if s.chantiers != nil {
		var err error
		info, err = s.chantiers.GetChantierInfo(ctx, chantierID)
		if err != nil {
			slog.DebugContext(ctx, "Fiche chantier indisponible, nom par defaut",
				"chantier_id", chantierID, "error", err)
			info = nil
		}
	}

	nom := info.NomOuDefaut(chantierID)
	s.noms.Set(cle, nom)
	return nom
}

// classer retourne les tailleClassement premieres syntheses selon l'ordre
// donne; le tri stable garde l'ordre d'entree en cas d'egalite.
func classer(syntheses []core.SyntheseChantier, avant func(a, b core.SyntheseChantier) bool) []core.SyntheseChantier {
	classees := append([]core.SyntheseChantier(nil), syntheses...)
	sort.SliceStable(classees, func(i, j int) bool {
		return avant(classees[i], classees[j])
	})
	if len(classees) > tailleClassement {
		classees = classees[:tailleClassement]
	}
	return classees
}
