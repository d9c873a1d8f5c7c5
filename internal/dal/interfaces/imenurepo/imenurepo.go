package imenurepo

import (
	"context"

	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
)

// IMenuRepository is a read-only view of the menu catalog.
type IMenuRepository interface {
	Query(ctx context.Context, filter *menuitem.QueryMenuItemsModel) ([]menuitem.MenuItem, error)
}
