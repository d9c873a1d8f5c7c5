package createorder

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/canteen/internal/service/models/money"
	"github.com/corray333/backend-labs/canteen/internal/service/models/order"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/request"
	"github.com/corray333/backend-labs/canteen/internal/transport/http/response"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, model order.CreateOrderModel) (order.Order, error)
}

// lineInCreateOrderRequest represents a cart line in a create order request.
type lineInCreateOrderRequest struct {
	MenuItemID int64 `json:"menuItemId" validate:"gt=0"`
	Quantity   int   `json:"quantity"   validate:"gt=0"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	UserID   int64                      `json:"userId"   validate:"gt=0"`
	TimeSlot string                     `json:"timeSlot" validate:"required,max=32"`
	Items    []lineInCreateOrderRequest `json:"items"    validate:"required,min=1,dive"`
}

// toModel converts createOrderRequest to order.CreateOrderModel.
func (r *createOrderRequest) toModel() order.CreateOrderModel {
	lines := make([]order.Line, len(r.Items))
	for i, item := range r.Items {
		lines[i] = order.Line{MenuItemID: item.MenuItemID, Quantity: item.Quantity}
	}

	return order.CreateOrderModel{UserID: r.UserID, TimeSlot: r.TimeSlot, Lines: lines}
}

type createOrderResponse struct {
	Success    bool         `json:"success"`
	OrderID    int64        `json:"orderId"`
	Status     order.Status `json:"status"`
	TotalCents money.Cents  `json:"totalCents"`
	Total      string       `json:"total"`
}

// CreateOrder handles the create order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	var req createOrderRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)

		return
	}

	created, err := service.CreateOrder(r.Context(), req.toModel())
	if err != nil {
		response.WriteError(w, r, err)

		return
	}

	response.WriteJSON(w, r, http.StatusOK, createOrderResponse{
		Success:    true,
		OrderID:    created.ID,
		Status:     created.Status,
		TotalCents: created.TotalCents,
		Total:      created.TotalCents.String(),
	})
}
