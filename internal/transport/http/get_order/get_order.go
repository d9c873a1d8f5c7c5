package getorder

import (
	"context"
	"net/http"
	"strconv"

	"github.com/corray333/backend-labs/canteen/internal/service/models/apperr"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	GetOrder(ctx context.Context, id int64) (order.Order, error)
}

type getOrderResponse struct {
	Success bool        `json:"success"`
	Order   order.Order `json:"order"`
}

// GetOrder returns one order with its items.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.WriteError(w, r, apperr.Validation("id", "must be a positive integer"))

		return
	}

	o, err := service.GetOrder(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, err)

		return
	}

	response.WriteJSON(w, r, http.StatusOK, getOrderResponse{Success: true, Order: o})
}
