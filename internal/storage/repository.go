// Package storage implemente les ports de persistance sur SQLite.
//
// Les montants sont stockes en TEXT et convertis en decimaux exacts au
// scan; les sommes se font cote Go, jamais via SUM() qui coercerait en
// flottant.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"

	_ "modernc.org/sqlite"
)

// Store ouvre la base et porte un depot par agregat.
type Store struct {
	db *sql.DB

	Budgets   *BudgetRepo
	Achats    *AchatRepo
	Avenants  *AvenantRepo
	Alertes   *AlerteRepo
	Journal   *JournalRepo
	Chantiers *ChantierRepo
	CoutsMO   *CoutMainOeuvreRepo
	CoutsMat  *CoutMaterielRepo
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:        db,
		Budgets:   &BudgetRepo{db: db},
		Achats:    &AchatRepo{db: db},
		Avenants:  &AvenantRepo{db: db},
		Alertes:   &AlerteRepo{db: db},
		Journal:   &JournalRepo{db: db},
		Chantiers: &ChantierRepo{db: db},
		CoutsMO:   &CoutMainOeuvreRepo{db: db},
		CoutsMat:  &CoutMaterielRepo{db: db},
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func montant(colonne string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(colonne)
	if err != nil {
		return decimal.Zero, fmt.Errorf("montant invalide %q: %w", colonne, err)
	}
	return v, nil
}

// BudgetRepo implemente ports.BudgetRepository.
type BudgetRepo struct {
	db *sql.DB
}

const colonnesBudget = `id, chantier_id, montant_initial_ht, montant_avenants_ht,
	seuil_alerte_pct, seuil_validation_achat, retenue_garantie_pct, notes, created_at`

func (r *BudgetRepo) scan(row *sql.Row) (*core.Budget, error) {
	var b core.Budget
	var initial, avenants, seuilAlerte, seuilValidation, retenue string
	err := row.Scan(&b.ID, &b.ChantierID, &initial, &avenants,
		&seuilAlerte, &seuilValidation, &retenue, &b.Notes, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	for _, conv := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&b.MontantInitialHT, initial},
		{&b.MontantAvenantsHT, avenants},
		{&b.SeuilAlertePct, seuilAlerte},
		{&b.SeuilValidationAchat, seuilValidation},
		{&b.RetenueGarantiePct, retenue},
	} {
		v, err := montant(conv.src)
		if err != nil {
			return nil, err
		}
		*conv.dst = v
	}
	return &b, nil
}

func (r *BudgetRepo) FindByChantierID(ctx context.Context, chantierID int64) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+colonnesBudget+` FROM budgets WHERE chantier_id = ?`, chantierID)
	b, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entite: "budget", ID: chantierID}
	}
	if err != nil {
		return nil, fmt.Errorf("find budget by chantier: %w", err)
	}
	return b, nil
}

func (r *BudgetRepo) FindByID(ctx context.Context, id int64) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+colonnesBudget+` FROM budgets WHERE id = ?`, id)
	b, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entite: "budget", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("find budget: %w", err)
	}
	return b, nil
}

func (r *BudgetRepo) Save(ctx context.Context, b *core.Budget) error {
	if b.ID == 0 {
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now()
		}
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO budgets (chantier_id, montant_initial_ht, montant_avenants_ht,
				seuil_alerte_pct, seuil_validation_achat, retenue_garantie_pct, notes, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ChantierID, b.MontantInitialHT.String(), b.MontantAvenantsHT.String(),
			b.SeuilAlertePct.String(), b.SeuilValidationAchat.String(),
			b.RetenueGarantiePct.String(), b.Notes, b.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("budget insert id: %w", err)
		}
		b.ID = id
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET montant_initial_ht = ?, montant_avenants_ht = ?,
			seuil_alerte_pct = ?, seuil_validation_achat = ?, retenue_garantie_pct = ?, notes = ?
		 WHERE id = ?`,
		b.MontantInitialHT.String(), b.MontantAvenantsHT.String(),
		b.SeuilAlertePct.String(), b.SeuilValidationAchat.String(),
		b.RetenueGarantiePct.String(), b.Notes, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

// ListChantierIDs retourne les chantiers ayant un budget, pour la passe de
// verification du worker.
func (r *BudgetRepo) ListChantierIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chantier_id FROM budgets ORDER BY chantier_id`)
	if err != nil {
		return nil, fmt.Errorf("list chantier ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chantier id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AchatRepo implemente ports.AchatRepository.
type AchatRepo struct {
	db *sql.DB
}

func (r *AchatRepo) FindByID(ctx context.Context, id int64) (*core.Achat, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, chantier_id, libelle, quantite, prix_unitaire_ht, statut, created_at
		 FROM achats WHERE id = ?`, id)

	var a core.Achat
	var quantite, prix, statut string
	err := row.Scan(&a.ID, &a.ChantierID, &a.Libelle, &quantite, &prix, &statut, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entite: "achat", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("find achat: %w", err)
	}
	if a.Quantite, err = montant(quantite); err != nil {
		return nil, err
	}
	if a.PrixUnitaireHT, err = montant(prix); err != nil {
		return nil, err
	}
	a.Statut = core.StatutAchat(statut)
	return &a, nil
}

func (r *AchatRepo) FindByChantier(ctx context.Context, chantierID int64) ([]core.Achat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, chantier_id, libelle, quantite, prix_unitaire_ht, statut, created_at
		 FROM achats WHERE chantier_id = ? ORDER BY id`, chantierID)
	if err != nil {
		return nil, fmt.Errorf("list achats: %w", err)
	}
	defer rows.Close()

	var achats []core.Achat
	for rows.Next() {
		var a core.Achat
		var quantite, prix, statut string
		if err := rows.Scan(&a.ID, &a.ChantierID, &a.Libelle, &quantite, &prix, &statut, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan achat: %w", err)
		}
		if a.Quantite, err = montant(quantite); err != nil {
			return nil, err
		}
		if a.PrixUnitaireHT, err = montant(prix); err != nil {
			return nil, err
		}
		a.Statut = core.StatutAchat(statut)
		achats = append(achats, a)
	}
	return achats, rows.Err()
}

func (r *AchatRepo) SommeByChantier(ctx context.Context, chantierID int64, statuts []core.StatutAchat) (decimal.Decimal, error) {
	achats, err := r.FindByChantier(ctx, chantierID)
	if err != nil {
		return decimal.Zero, err
	}
	somme := decimal.Zero
	for _, a := range achats {
		for _, st := range statuts {
			if a.Statut == st {
				somme = somme.Add(a.MontantHT())
				break
			}
		}
	}
	return somme, nil
}

func (r *AchatRepo) Save(ctx context.Context, a *core.Achat) error {
	if a.ID == 0 {
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now()
		}
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO achats (chantier_id, libelle, quantite, prix_unitaire_ht, statut, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.ChantierID, a.Libelle, a.Quantite.String(), a.PrixUnitaireHT.String(),
			string(a.Statut), a.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert achat: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("achat insert id: %w", err)
		}
		a.ID = id
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE achats SET libelle = ?, quantite = ?, prix_unitaire_ht = ?, statut = ? WHERE id = ?`,
		a.Libelle, a.Quantite.String(), a.PrixUnitaireHT.String(), string(a.Statut), a.ID)
	if err != nil {
		return fmt.Errorf("update achat: %w", err)
	}
	return nil
}

// AvenantRepo implemente ports.AvenantRepository.
type AvenantRepo struct {
	db *sql.DB
}

const colonnesAvenant = `id, budget_id, numero, motif, montant_ht, impact_description,
	statut, validated_by, created_at`

func scanAvenant(scan func(dest ...any) error) (*core.AvenantBudgetaire, error) {
	var a core.AvenantBudgetaire
	var montantHT, statut string
	err := scan(&a.ID, &a.BudgetID, &a.Numero, &a.Motif, &montantHT,
		&a.ImpactDescription, &statut, &a.ValidatedBy, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if a.MontantHT, err = montant(montantHT); err != nil {
		return nil, err
	}
	a.Statut = core.StatutAvenant(statut)
	return &a, nil
}

func (r *AvenantRepo) FindByID(ctx context.Context, id int64) (*core.AvenantBudgetaire, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+colonnesAvenant+` FROM avenants_budgetaires WHERE id = ?`, id)
	a, err := scanAvenant(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entite: "avenant", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("find avenant: %w", err)
	}
	return a, nil
}

func (r *AvenantRepo) FindByBudgetID(ctx context.Context, budgetID int64) ([]core.AvenantBudgetaire, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+colonnesAvenant+` FROM avenants_budgetaires WHERE budget_id = ? ORDER BY id`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list avenants: %w", err)
	}
	defer rows.Close()

	var avenants []core.AvenantBudgetaire
	for rows.Next() {
		a, err := scanAvenant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan avenant: %w", err)
		}
		avenants = append(avenants, *a)
	}
	return avenants, rows.Err()
}

func (r *AvenantRepo) CountByBudgetID(ctx context.Context, budgetID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM avenants_budgetaires WHERE budget_id = ?`, budgetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count avenants: %w", err)
	}
	return n, nil
}

func (r *AvenantRepo) Save(ctx context.Context, a *core.AvenantBudgetaire) error {
	if a.ID == 0 {
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now()
		}
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO avenants_budgetaires
				(budget_id, numero, motif, montant_ht, impact_description, statut, validated_by, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			a.BudgetID, a.Numero, a.Motif, a.MontantHT.String(),
			a.ImpactDescription, string(a.Statut), a.ValidatedBy, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert avenant: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("avenant insert id: %w", err)
		}
		a.ID = id
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE avenants_budgetaires SET motif = ?, montant_ht = ?, impact_description = ?,
			statut = ?, validated_by = ? WHERE id = ?`,
		a.Motif, a.MontantHT.String(), a.ImpactDescription,
		string(a.Statut), a.ValidatedBy, a.ID)
	if err != nil {
		return fmt.Errorf("update avenant: %w", err)
	}
	return nil
}

func (r *AvenantRepo) SommeAvenantsValides(ctx context.Context, budgetID int64) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT montant_ht FROM avenants_budgetaires WHERE budget_id = ? AND statut = ?`,
		budgetID, string(core.AvenantValide))
	if err != nil {
		return decimal.Zero, fmt.Errorf("somme avenants valides: %w", err)
	}
	defer rows.Close()

	somme := decimal.Zero
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return decimal.Zero, fmt.Errorf("scan montant avenant: %w", err)
		}
		v, err := montant(col)
		if err != nil {
			return decimal.Zero, err
		}
		somme = somme.Add(v)
	}
	return somme, rows.Err()
}

func (r *AvenantRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM avenants_budgetaires WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete avenant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete avenant rows: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{Entite: "avenant", ID: id}
	}
	return nil
}

// AlerteRepo implemente ports.AlerteRepository.
type AlerteRepo struct {
	db *sql.DB
}

const colonnesAlerte = `id, chantier_id, budget_id, type_alerte, message,
	pourcentage_atteint, seuil_configure, montant_budget_ht, montant_atteint_ht,
	est_acquittee, acquittee_par, acquittee_at, created_at`

func scanAlerte(scan func(dest ...any) error) (*core.AlerteDepassement, error) {
	var a core.AlerteDepassement
	var typ, pct, seuil, budgetHT, atteintHT string
	var acquitteeAt sql.NullTime
	err := scan(&a.ID, &a.ChantierID, &a.BudgetID, &typ, &a.Message,
		&pct, &seuil, &budgetHT, &atteintHT,
		&a.EstAcquittee, &a.AcquitteePar, &acquitteeAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.TypeAlerte = core.TypeAlerte(typ)
	for _, conv := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&a.PourcentageAtteint, pct},
		{&a.SeuilConfigure, seuil},
		{&a.MontantBudgetHT, budgetHT},
		{&a.MontantAtteintHT, atteintHT},
	} {
		v, err := montant(conv.src)
		if err != nil {
			return nil, err
		}
		*conv.dst = v
	}
	if acquitteeAt.Valid {
		quand := acquitteeAt.Time
		a.AcquitteeAt = &quand
	}
	return &a, nil
}

func (r *AlerteRepo) Save(ctx context.Context, a *core.AlerteDepassement) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO alertes_depassement
			(chantier_id, budget_id, type_alerte, message, pourcentage_atteint,
			 seuil_configure, montant_budget_ht, montant_atteint_ht, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ChantierID, a.BudgetID, string(a.TypeAlerte), a.Message,
		a.PourcentageAtteint.String(), a.SeuilConfigure.String(),
		a.MontantBudgetHT.String(), a.MontantAtteintHT.String(), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alerte: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("alerte insert id: %w", err)
	}
	a.ID = id
	return nil
}

func (r *AlerteRepo) FindByID(ctx context.Context, id int64) (*core.AlerteDepassement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+colonnesAlerte+` FROM alertes_depassement WHERE id = ?`, id)
	a, err := scanAlerte(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entite: "alerte", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("find alerte: %w", err)
	}
	return a, nil
}

func (r *AlerteRepo) FindByChantierID(ctx context.Context, chantierID int64) ([]core.AlerteDepassement, error) {
	return r.list(ctx,
		`SELECT `+colonnesAlerte+` FROM alertes_depassement WHERE chantier_id = ? ORDER BY id`,
		chantierID)
}

func (r *AlerteRepo) FindNonAcquittees(ctx context.Context, chantierID int64) ([]core.AlerteDepassement, error) {
	return r.list(ctx,
		`SELECT `+colonnesAlerte+` FROM alertes_depassement
		 WHERE chantier_id = ? AND est_acquittee = 0 ORDER BY id`,
		chantierID)
}

func (r *AlerteRepo) list(ctx context.Context, query string, args ...any) ([]core.AlerteDepassement, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alertes: %w", err)
	}
	defer rows.Close()

	var alertes []core.AlerteDepassement
	for rows.Next() {
		a, err := scanAlerte(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan alerte: %w", err)
		}
		alertes = append(alertes, *a)
	}
	return alertes, rows.Err()
}

// Acquitter est a sens unique: la clause est_acquittee = 0 garantit qu'un
// second passage ne touche aucune ligne.
func (r *AlerteRepo) Acquitter(ctx context.Context, id int64, utilisateur string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alertes_depassement SET est_acquittee = 1, acquittee_par = ?, acquittee_at = ?
		 WHERE id = ? AND est_acquittee = 0`,
		utilisateur, time.Now(), id)
	if err != nil {
		return fmt.Errorf("acquitter alerte: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquitter alerte rows: %w", err)
	}
	if n == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return &core.EtatTerminalError{Entite: "alerte", ID: id, Etat: "acquittee"}
	}
	return nil
}

// JournalRepo implemente ports.JournalFinancierRepository, append-only.
type JournalRepo struct {
	db *sql.DB
}

func (r *JournalRepo) Save(ctx context.Context, e *core.JournalEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO journal_financier (chantier_id, operation, entite, entite_id, montant_ht, utilisateur, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ChantierID, e.Operation, e.Entite, e.EntiteID,
		e.MontantHT.String(), e.Utilisateur, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert journal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("journal insert id: %w", err)
	}
	e.ID = id
	return nil
}

// ChantierRepo implemente ports.ChantierInfo.
type ChantierRepo struct {
	db *sql.DB
}

func (r *ChantierRepo) GetChantierInfo(ctx context.Context, chantierID int64) (*core.ChantierInfo, error) {
	var info core.ChantierInfo
	err := r.db.QueryRowContext(ctx,
		`SELECT id, nom, statut FROM chantiers WHERE id = ?`, chantierID).
		Scan(&info.ID, &info.Nom, &info.Statut)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entite: "chantier", ID: chantierID}
	}
	if err != nil {
		return nil, fmt.Errorf("find chantier: %w", err)
	}
	return &info, nil
}

func (r *ChantierRepo) ListChantierIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM chantiers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list chantiers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chantier id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CoutMainOeuvreRepo implemente ports.CoutMainOeuvreRepository: somme des
// heures pointees multipliees par le taux horaire.
type CoutMainOeuvreRepo struct {
	db *sql.DB
}

func (r *CoutMainOeuvreRepo) CalculerCoutChantier(ctx context.Context, chantierID int64) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT heures, taux_horaire_ht FROM couts_main_oeuvre WHERE chantier_id = ?`, chantierID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("couts main oeuvre: %w", err)
	}
	defer rows.Close()

	somme := decimal.Zero
	for rows.Next() {
		var heures, taux string
		if err := rows.Scan(&heures, &taux); err != nil {
			return decimal.Zero, fmt.Errorf("scan cout main oeuvre: %w", err)
		}
		h, err := montant(heures)
		if err != nil {
			return decimal.Zero, err
		}
		t, err := montant(taux)
		if err != nil {
			return decimal.Zero, err
		}
		somme = somme.Add(h.Mul(t))
	}
	return somme.Round(2), rows.Err()
}

// CoutMaterielRepo implemente ports.CoutMaterielRepository.
type CoutMaterielRepo struct {
	db *sql.DB
}

func (r *CoutMaterielRepo) CalculerCoutChantier(ctx context.Context, chantierID int64) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT montant_ht FROM couts_materiel WHERE chantier_id = ?`, chantierID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("couts materiel: %w", err)
	}
	defer rows.Close()

	somme := decimal.Zero
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return decimal.Zero, fmt.Errorf("scan cout materiel: %w", err)
		}
		v, err := montant(col)
		if err != nil {
			return decimal.Zero, err
		}
		somme = somme.Add(v)
	}
	return somme.Round(2), rows.Err()
}
