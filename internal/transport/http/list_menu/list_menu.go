package listmenu

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/canteen/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/request"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/response"
)

type service interface {
	ListMenu(ctx context.Context, onlyAvailable bool) ([]menuitem.MenuItem, error)
}

// listMenuRequest represents the query of a list menu request.
type listMenuRequest struct {
	All bool `schema:"all"`
}

type listMenuResponse struct {
	Success bool                `json:"success"`
	Items   []menuitem.MenuItem `json:"items"`
}

// ListMenu returns the orderable menu, or the whole menu with ?all=true.
func ListMenu(w http.ResponseWriter, r *http.Request, service service) {
	var req listMenuRequest
	if err := request.DecodeQuery(r, &req); err != nil {
		response.WriteError(w, r, err)

		return
	}

	items, err := service.ListMenu(r.Context(), !req.All)
	if err != nil {
		response.WriteError(w, r, err)

		return
	}

	response.WriteJSON(w, r, http.StatusOK, listMenuResponse{Success: true, Items: items})
}
