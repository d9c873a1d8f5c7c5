package menuitem

import (
	"time"

	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
)

// MenuItem is a catalog entry that can be ordered.
type MenuItem struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	PriceCents  money.Cents `json:"priceCents"`
	Available   bool        `json:"available"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// QueryMenuItemsModel represents filter parameters for querying the menu.
type QueryMenuItemsModel struct {
	Ids           []int64 `json:"ids,omitempty"`
	OnlyAvailable bool    `json:"onlyAvailable,omitempty"`
}
