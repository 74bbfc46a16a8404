package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"chantierfin/internal/core"
)

type erreurJSON struct {
	Error erreurCorps `json:"error"`
}

type erreurCorps struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Echec d'encodage de la reponse", "error", err)
	}
}

func writeErreur(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, erreurJSON{Error: erreurCorps{Kind: kind, Message: message}})
}

// writeErreurDomaine traduit la taxonomie d'erreurs du domaine en statut
// HTTP. Tout ce qui n'est pas classe est une 500 au message generique.
func writeErreurDomaine(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrIntrouvable):
		writeErreur(w, http.StatusNotFound, "introuvable", err.Error())
	case errors.Is(err, core.ErrEtatTerminal):
		writeErreur(w, http.StatusConflict, "etat_terminal", err.Error())
	case errors.Is(err, core.ErrTransitionInvalide):
		writeErreur(w, http.StatusConflict, "transition_invalide", err.Error())
	case errors.Is(err, core.ErrParametreInvalide):
		writeErreur(w, http.StatusBadRequest, "parametre_invalide", err.Error())
	default:
		slog.Error("Erreur interne", "error", err)
		writeErreur(w, http.StatusInternalServerError, "interne", "erreur interne")
	}
}
