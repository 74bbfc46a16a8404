// Package google ecrit le rapport consolide dans une feuille Google Sheets
// via un compte de service.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"chantierfin/internal/core"
	ports "chantierfin/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	now           func() time.Time
}

var _ ports.RapportWriter = (*Client)(nil)

// Options configure l'acces a la feuille de rapport. CredentialsJSON prime
// sur CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Consolidation"
	}

	credentialsJSON := []byte(opts.CredentialsJSON)
	if len(credentialsJSON) == 0 {
		if opts.CredentialsFile == "" {
			return nil, errors.New("missing service account credentials")
		}
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = data
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     sheetName,
		now:           time.Now,
	}, nil
}

// Append ajoute une ligne d'agregats puis une ligne par chantier. Chaque
// passe du worker produit un bloc horodate, la feuille sert d'historique.
func (c *Client) Append(ctx context.Context, vue core.VueConsolidee) (string, error) {
	horodatage := c.now().Format(time.RFC3339)

	values := [][]any{{
		horodatage,
		"kpi",
		vue.KPIGlobaux.NbChantiers,
		core.FormatMontant(vue.KPIGlobaux.TotalBudget),
		core.FormatMontant(vue.KPIGlobaux.TotalEngage),
		core.FormatMontant(vue.KPIGlobaux.TotalRealise),
		core.FormatMontant(vue.KPIGlobaux.TotalResteADepenser),
		core.FormatMontant(vue.KPIGlobaux.MargeMoyennePct),
	}}
	for _, s := range vue.Chantiers {
		values = append(values, []any{
			horodatage,
			"chantier",
			s.ChantierID,
			s.NomChantier,
			core.FormatMontant(s.MontantRevise),
			core.FormatMontant(s.MontantEngage),
			core.FormatMontant(s.MontantRealise),
			core.FormatMontant(s.PctEngage),
			s.Statut,
			s.NbAlertes,
		})
	}

	resp, err := c.svc.Spreadsheets.Values.Append(
		c.spreadsheetID,
		c.sheetName+"!A:J",
		&gsheet.ValueRange{Values: values},
	).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append rapport: %w", err)
	}

	rowRef := ""
	if resp.Updates != nil {
		rowRef = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Rapport consolide exporte",
		"sheet", c.sheetName,
		"chantiers", vue.KPIGlobaux.NbChantiers,
		"range", rowRef)
	return rowRef, nil
}
