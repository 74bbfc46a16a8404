package sheets

import (
	"context"

	"chantierfin/internal/core"
)

// RapportWriter ajoute un instantane de la vue consolidee a un rapport
// externe. L'ecriture est best-effort: le worker loggue l'echec et
// reessaie a la passe suivante.
type RapportWriter interface {
	Append(ctx context.Context, vue core.VueConsolidee) (rowRef string, err error)
}
