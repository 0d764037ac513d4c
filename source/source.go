// Package source defines the mail-source contract the sync engine
// consumes.
package source

import (
	"context"
	"time"

	"github.com/mholdt/mail-archiver/model"
)

// Source enumerates candidate messages. The after bound is advisory
// and may be coarser than a second (Gmail's after: operator and IMAP's
// SINCE both work at day granularity); the engine re-filters strictly
// by receipt time. The query fragment is a source-specific selection
// expression and may be ignored by sources that have no query syntax.
type Source interface {
	Search(ctx context.Context, query string, after time.Time) ([]model.Message, error)
}
