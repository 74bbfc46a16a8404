package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"chantierfin/internal/core"
)

const tailleMaxCorps = 1 << 20 // 1 MiB

func decodeCorps(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, tailleMaxCorps)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeErreur(w, http.StatusBadRequest, "corps_invalide", "corps JSON invalide: "+err.Error())
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeErreur(w, http.StatusBadRequest, "parametre_invalide", "identifiant invalide")
		return 0, false
	}
	return id, true
}

func parseMontant(w http.ResponseWriter, champ, valeur string) (decimal.Decimal, bool) {
	m, err := decimal.NewFromString(strings.TrimSpace(valeur))
	if err != nil {
		writeErreur(w, http.StatusBadRequest, "parametre_invalide", "montant invalide pour "+champ)
		return decimal.Zero, false
	}
	return m, true
}

// Avenants

type avenantJSON struct {
	ID                int64  `json:"id"`
	BudgetID          int64  `json:"budget_id"`
	Numero            string `json:"numero"`
	Motif             string `json:"motif"`
	MontantHT         string `json:"montant_ht"`
	ImpactDescription string `json:"impact_description,omitempty"`
	Statut            string `json:"statut"`
	ValidatedBy       string `json:"validated_by,omitempty"`
	CreatedAt         string `json:"created_at"`
}

func versAvenantJSON(a *core.AvenantBudgetaire) avenantJSON {
	return avenantJSON{
		ID:                a.ID,
		BudgetID:          a.BudgetID,
		Numero:            a.Numero,
		Motif:             a.Motif,
		MontantHT:         core.FormatMontant(a.MontantHT),
		ImpactDescription: a.ImpactDescription,
		Statut:            string(a.Statut),
		ValidatedBy:       a.ValidatedBy,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleCreerAvenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BudgetID          int64  `json:"budget_id"`
		Motif             string `json:"motif"`
		MontantHT         string `json:"montant_ht"`
		ImpactDescription string `json:"impact_description"`
		CreatedBy         string `json:"created_by"`
	}
	if !decodeCorps(w, r, &req) {
		return
	}
	montant, ok := parseMontant(w, "montant_ht", req.MontantHT)
	if !ok {
		return
	}

	avenant, err := s.svc.Avenants.CreerAvenant(r.Context(), req.BudgetID, req.Motif, montant, req.ImpactDescription, req.CreatedBy)
	if err != nil {
		writeErreurDomaine(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, versAvenantJSON(avenant))
}

func (s *Server) handleValiderAvenant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req struct {
		ValidatedBy string `json:"validated_by"`
	}
	if !decodeCorps(w, r, &req) {
		return
	}

	avenant, err := s.svc.Avenants.ValiderAvenant(r.Context(), id, req.ValidatedBy)
	if err != nil {
		writeErreurDomaine(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versAvenantJSON(avenant))
}

func (s *Server) handleSupprimerAvenant(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	par := r.URL.Query().Get("par")

	if err := s.svc.Avenants.SupprimerAvenant(r.Context(), id, par); err != nil {
		writeErreurDomaine(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Achats

type achatJSON struct {
	ID             int64  `json:"id"`
	ChantierID     int64  `json:"chantier_id"`
	Libelle        string `json:"libelle"`
	Quantite       string `json:"quantite"`
	PrixUnitaireHT string `json:"prix_unitaire_ht"`
	MontantHT      string `json:"montant_ht"`
	Statut         string `json:"statut"`
	CreatedAt      string `json:"created_at"`
}

func versAchatJSON(a *core.Achat) achatJSON {
	return achatJSON{
		ID:             a.ID,
		ChantierID:     a.ChantierID,
		Libelle:        a.Libelle,
		Quantite:       a.Quantite.String(),
		PrixUnitaireHT: core.FormatMontant(a.PrixUnitaireHT),
		MontantHT:      core.FormatMontant(a.MontantHT()),
		Statut:         string(a.Statut),
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleCreerAchat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChantierID     int64  `json:"chantier_id"`
		Libelle        string `json:"libelle"`
		Quantite       string `json:"quantite"`
		PrixUnitaireHT string `json:"prix_unitaire_ht"`
		Demandeur      string `json:"demandeur"`
	}
	if !decodeCorps(w, r, &req) {
		return
	}
	quantite, ok := parseMontant(w, "quantite", req.Quantite)
	if !ok {
		return
	}
	prix, ok := parseMontant(w, "prix_unitaire_ht", req.PrixUnitaireHT)
	if !ok {
		return
	}

	achat, err := s.svc.Achats.CreerAchat(r.Context(), req.ChantierID, req.Libelle, quantite, prix, req.Demandeur)
	if err != nil {
		writeErreurDomaine(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, versAchatJSON(achat))
}

func (s *Server) handleChangerStatut(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req struct {
		Statut string `json:"statut"`
		Par    string `json:"par"`
	}
	if !decodeCorps(w, r, &req) {
		return
	}

	achat, err := s.svc.Achats.ChangerStatut(r.Context(), id, core.StatutAchat(req.Statut), req.Par)
	if err != nil {
		writeErreurDomaine(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versAchatJSON(achat))
}

// Alertes

type alerteJSON struct {
	ID                 int64  `json:"id"`
	ChantierID         int64  `json:"chantier_id"`
	BudgetID           int64  `json:"budget_id"`
	TypeAlerte         string `json:"type_alerte"`
	Message            string `json:"message"`
	PourcentageAtteint string `json:"pourcentage_atteint"`
	SeuilConfigure     string `json:"seuil_configure"`
	MontantBudgetHT    string `json:"montant_budget_ht"`
	MontantAtteintHT   string `json:"montant_atteint_ht"`
	EstAcquittee       bool   `json:"est_acquittee"`
	AcquitteePar       string `json:"acquittee_par,omitempty"`
	CreatedAt          string `json:"created_at"`
}

func versAlerteJSON(a core.AlerteDepassement) alerteJSON {
	return alerteJSON{
		ID:                 a.ID,
		ChantierID:         a.ChantierID,
		BudgetID:           a.BudgetID,
		TypeAlerte:         string(a.TypeAlerte),
		Message:            a.Message,
		PourcentageAtteint: core.FormatMontant(a.PourcentageAtteint),
		SeuilConfigure:     core.FormatMontant(a.SeuilConfigure),
		MontantBudgetHT:    core.FormatMontant(a.MontantBudgetHT),
		MontantAtteintHT:   core.FormatMontant(a.MontantAtteintHT),
		EstAcquittee:       a.EstAcquittee,
		AcquitteePar:       a.AcquitteePar,
		CreatedAt:          a.CreatedAt.Format(time.RFC3339),
	}
}

func versAlertesJSON(alertes []core.AlerteDepassement) []alerteJSON {
	out := make([]alerteJSON, 0, len(alertes))
	for _, a := range alertes {
		out = append(out, versAlerteJSON(a))
	}
	return out
}

func (s *Server) handleVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	creees, err := s.svc.Alertes.VerifierDepassement(r.Context(), id)
	if err != nil {
		writeErreurDomaine(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alertes_creees": versAlertesJSON(creees)})
}

func (s *Server) handleListerAlertes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var (
		alertes []core.AlerteDepassement
		err     error
	)
	if r.URL.Query().Get("non_acquittees") == "true" {
		alertes, err = s.svc.AlerteRepo.FindNonAcquittees(r.Context(), id)
	} else {
		alertes, err = s.svc.AlerteRepo.FindByChantierID(r.Context(), id)
	}
	if err != nil {
		writeErreurDomaine(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alertes": versAlertesJSON(alertes)})
}

func (s *Server) handleAcquitterAlerte(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req struct {
		Par string `json:"par"`
	}
	if !decodeCorps(w, r, &req) {
		return
	}

	if err := s.svc.Alertes.AcquitterAlerte(r.Context(), id, req.Par); err != nil {
		writeErreurDomaine(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Consolidation et evolution

type syntheseJSON struct {
	ChantierID     int64  `json:"chantier_id"`
	NomChantier    string `json:"nom_chantier"`
	MontantRevise  string `json:"montant_revise"`
	MontantEngage  string `json:"montant_engage"`
	MontantRealise string `json:"montant_realise"`
	PctEngage      string `json:"pct_engage"`
	PctRealise     string `json:"pct_realise"`
	MargeEstimee   string `json:"marge_estimee"`
	NbAlertes      int    `json:"nb_alertes"`
	Statut         string `json:"statut"`
}

type kpiJSON struct {
	NbChantiers         int    `json:"nb_chantiers"`
	TotalBudget         string `json:"total_budget"`
	TotalEngage         string `json:"total_engage"`
	TotalRealise        string `json:"total_realise"`
	TotalResteADepenser string `json:"total_reste_a_depenser"`
	MargeMoyennePct     string `json:"marge_moyenne_pct"`
	NbOK                int    `json:"nb_ok"`
	NbAttention         int    `json:"nb_attention"`
	NbDepassement       int    `json:"nb_depassement"`
}

type vueConsolideeJSON struct {
	KPIGlobaux   kpiJSON        `json:"kpi_globaux"`
	Chantiers    []syntheseJSON `json:"chantiers"`
	TopRentables []syntheseJSON `json:"top_rentables"`
	TopDerives   []syntheseJSON `json:"top_derives"`
}

func versSyntheseJSON(s core.SyntheseChantier) syntheseJSON {
	return syntheseJSON{
		ChantierID:     s.ChantierID,
		NomChantier:    s.NomChantier,
		MontantRevise:  core.FormatMontant(s.MontantRevise),
		MontantEngage:  core.FormatMontant(s.MontantEngage),
		MontantRealise: core.FormatMontant(s.MontantRealise),
		PctEngage:      core.FormatMontant(s.PctEngage),
		PctRealise:     core.FormatMontant(s.PctRealise),
		MargeEstimee:   core.FormatMontant(s.MargeEstimee),
		NbAlertes:      s.NbAlertes,
		Statut:         s.Statut,
	}
}

func versSynthesesJSON(syntheses []core.SyntheseChantier) []syntheseJSON {
	out := make([]syntheseJSON, 0, len(syntheses))
	for _, s := range syntheses {
		out = append(out, versSyntheseJSON(s))
	}
	return out
}

func (s *Server) handleConsolidation(w http.ResponseWriter, r *http.Request) {
	brut := strings.TrimSpace(r.URL.Query().Get("chantiers"))
	var ids []int64
	if brut != "" {
		for _, part := range strings.Split(brut, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || id <= 0 {
				writeErreur(w, http.StatusBadRequest, "parametre_invalide", "liste de chantiers invalide")
				return
			}
			ids = append(ids, id)
		}
	}

	vue, err := s.svc.Consolidation.Consolider(r.Context(), ids)
	if err != nil {
		writeErreurDomaine(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vueConsolideeJSON{
		KPIGlobaux: kpiJSON{
			NbChantiers:         vue.KPIGlobaux.NbChantiers,
			TotalBudget:         core.FormatMontant(vue.KPIGlobaux.TotalBudget),
			TotalEngage:         core.FormatMontant(vue.KPIGlobaux.TotalEngage),
			TotalRealise:        core.FormatMontant(vue.KPIGlobaux.TotalRealise),
			TotalResteADepenser: core.FormatMontant(vue.KPIGlobaux.TotalResteADepenser),
			MargeMoyennePct:     core.FormatMontant(vue.KPIGlobaux.MargeMoyennePct),
			NbOK:                vue.KPIGlobaux.NbOK,
			NbAttention:         vue.KPIGlobaux.NbAttention,
			NbDepassement:       vue.KPIGlobaux.NbDepassement,
		},
		Chantiers:    versSynthesesJSON(vue.Chantiers),
		TopRentables: versSynthesesJSON(vue.TopRentables),
		TopDerives:   versSynthesesJSON(vue.TopDerives),
	})
}

type pointEvolutionJSON struct {
	Annee         int    `json:"annee"`
	Mois          int    `json:"mois"`
	PrevuCumule   string `json:"prevu_cumule"`
	EngageCumule  string `json:"engage_cumule"`
	RealiseCumule string `json:"realise_cumule"`
}

func (s *Server) handleEvolution(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	points, err := s.svc.Evolution.Evolution(r.Context(), id)
	if err != nil {
		writeErreurDomaine(w, err)
		return
	}

	out := make([]pointEvolutionJSON, 0, len(points))
	for _, p := range points {
		out = append(out, pointEvolutionJSON{
			Annee:         p.Annee,
			Mois:          p.Mois,
			PrevuCumule:   core.FormatMontant(p.PrevuCumule),
			EngageCumule:  core.FormatMontant(p.EngageCumule),
			RealiseCumule: core.FormatMontant(p.RealiseCumule),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": out})
}
