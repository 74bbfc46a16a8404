package core

import (
	"errors"
	"fmt"
)

// Sentinelles de la taxonomie d'erreurs. Les types structures ci-dessous
// s'y rattachent via Unwrap, donc errors.Is fonctionne cote appelant.
var (
	ErrIntrouvable        = errors.New("introuvable")
	ErrEtatTerminal       = errors.New("etat terminal")
	ErrTransitionInvalide = errors.New("transition de statut invalide")
	ErrParametreInvalide  = errors.New("parametre invalide")
)

// NotFoundError signale qu'un identifiant ne resout aucune entite.
type NotFoundError struct {
	Entite string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Entite, e.ID, ErrIntrouvable)
}

func (e *NotFoundError) Unwrap() error { return ErrIntrouvable }

// EtatTerminalError signale une mutation sur une entite deja terminale
// (avenant deja valide, alerte deja acquittee).
type EtatTerminalError struct {
	Entite string
	ID     int64
	Etat   string
}

func (e *EtatTerminalError) Error() string {
	return fmt.Sprintf("%s %d deja en etat terminal %q", e.Entite, e.ID, e.Etat)
}

func (e *EtatTerminalError) Unwrap() error { return ErrEtatTerminal }

// TransitionInvalideError signale un changement de statut d'achat hors de
// la table des transitions autorisees.
type TransitionInvalideError struct {
	De   StatutAchat
	Vers StatutAchat
}

func (e *TransitionInvalideError) Error() string {
	return fmt.Sprintf("transition %s -> %s interdite", e.De, e.Vers)
}

func (e *TransitionInvalideError) Unwrap() error { return ErrTransitionInvalide }

// ParametreInvalideError signale un parametre d'entree malforme.
type ParametreInvalideError struct {
	Champ  string
	Raison string
}

func (e *ParametreInvalideError) Error() string {
	return fmt.Sprintf("parametre %q invalide: %s", e.Champ, e.Raison)
}

func (e *ParametreInvalideError) Unwrap() error { return ErrParametreInvalide }
