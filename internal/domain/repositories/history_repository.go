package repositories

import (
	"context"

	"github.com/sitepulse/analyst/internal/domain/entities"
)

// DefaultRetentionDays is how long stored reports are kept.
const DefaultRetentionDays = 90

// HistoryRepository stores the ordered report history of each site. Sites are
// keyed by entities.SiteKey. Implementations prune records older than their
// retention window on Append.
type HistoryRepository interface {
	// LoadTail returns up to n most recent snapshots, oldest first.
	LoadTail(ctx context.Context, siteURL string, n int) ([]entities.Snapshot, error)

	// Append stores a record at the end of the site history.
	Append(ctx context.Context, siteURL string, record *entities.HistoryRecord) error

	// Latest returns the most recent record or a NOT_FOUND error.
	Latest(ctx context.Context, siteURL string) (*entities.HistoryRecord, error)

	// Count returns the number of stored records for the site.
	Count(ctx context.Context, siteURL string) (int, error)

	// ListSites returns every site key with stored history, sorted.
	ListSites(ctx context.Context) ([]string, error)
}
