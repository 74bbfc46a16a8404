package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"
	"chantierfin/internal/ports"
)

// EvolutionService produit la courbe mensuelle prevu/engage/realise d'un
// chantier.
type EvolutionService struct {
	budgets ports.BudgetRepository
	achats  ports.AchatRepository
	now     func() time.Time
}

func NewEvolutionService(budgets ports.BudgetRepository, achats ports.AchatRepository) *EvolutionService {
	return &EvolutionService{
		budgets: budgets,
		achats:  achats,
		now:     time.Now,
	}
}

// Evolution retourne un point par mois calendaire, du mois de creation du
// budget au mois courant inclus (au moins un point).
//
// Le prevu cumule est une repartition lineaire du budget revise sur la
// fenetre ecoulee, independante du rythme reel de depense. Les cumuls
// engage/realise additionnent les achats dont la date de creation tombe
// dans le mois ou avant; un achat sans date est exclu. Les deux series
// sont non decroissantes par construction.
func (s *EvolutionService) Evolution(ctx context.Context, chantierID int64) ([]core.PointEvolution, error) {
	budget, err := s.budgets.FindByChantierID(ctx, chantierID)
	if err != nil {
		return nil, fmt.Errorf("chercher budget: %w", err)
	}

	achats, err := s.achats.FindByChantier(ctx, chantierID)
	if err != nil {
		return nil, fmt.Errorf("lister achats: %w", err)
	}

	revise := budget.MontantReviseHT()
	debut := time.Date(budget.CreatedAt.Year(), budget.CreatedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
	maintenant := s.now()
	fin := time.Date(maintenant.Year(), maintenant.Month(), 1, 0, 0, 0, 0, time.UTC)
	if fin.Before(debut) {
		fin = debut
	}

	totalMois := moisEntre(debut, fin)
	points := make([]core.PointEvolution, 0, totalMois)

	for k := 1; k <= totalMois; k++ {
		mois := debut.AddDate(0, k-1, 0)
		finDeMois := mois.AddDate(0, 1, 0)

		engage := decimal.Zero
		realise := decimal.Zero
		for _, a := range achats {
			if a.CreatedAt.IsZero() || !a.CreatedAt.Before(finDeMois) {
				continue
			}
			if a.Statut.EstEngage() {
				engage = engage.Add(a.MontantHT())
			}
			if a.Statut == core.StatutFacture {
				realise = realise.Add(a.MontantHT())
			}
		}

		points = append(points, core.PointEvolution{
			Annee:         mois.Year(),
			Mois:          int(mois.Month()),
			PrevuCumule:   revise.Mul(decimal.NewFromInt(int64(k))).Div(decimal.NewFromInt(int64(totalMois))).Round(2),
			EngageCumule:  engage.Round(2),
			RealiseCumule: realise.Round(2),
		})
	}

	return points, nil
}

// moisEntre compte les mois calendaires entre deux premiers-du-mois,
// bornes incluses.
func moisEntre(debut, fin time.Time) int {
	return (fin.Year()-debut.Year())*12 + int(fin.Month()) - int(debut.Month()) + 1
}
