package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
	"github.com/kinhtot/marketplace/internal/store"
)

type orderItemPayload struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity"`
}

type createOrderPayload struct {
	Items           []orderItemPayload `json:"items"`
	ShippingAddress string             `json:"shippingAddress"`
	Phone           string             `json:"phone"`
	Note            string             `json:"note"`
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	user := currentUser(c)

	var payload createOrderPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "invalid order payload")
		return
	}

	items := make([]store.OrderItemRequest, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, store.OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := store.CreateOrder(c.Request.Context(), s.db, store.CreateOrderRequest{
		BuyerID:         user.ID,
		Items:           items,
		ShippingAddress: payload.ShippingAddress,
		Phone:           payload.Phone,
		Note:            payload.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, "order created", order)
}

func (s *Server) handleMyOrders(c *gin.Context) {
	user := currentUser(c)

	_, limit := store.ClampPage(1, queryInt(c, "limit"), 20, 100)

	page, err := store.ListMyOrders(c.Request.Context(), s.db, user.ID, c.Query("cursor"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "ok", page)
}

func (s *Server) handleManageOrders(c *gin.Context) {
	user := currentUser(c)

	page, err := store.ListManageOrders(c.Request.Context(), s.db, user.ID, user.Role, store.ManageOrdersFilter{
		Status:      c.Query("status"),
		OrderNumber: c.Query("orderNumber"),
		Search:      c.Query("search"),
		Page:        queryInt(c, "page"),
		Limit:       queryInt(c, "limit"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "ok", page)
}

func (s *Server) orderIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid order id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetOrder(c *gin.Context) {
	user := currentUser(c)

	id, ok := s.orderIDParam(c)
	if !ok {
		return
	}

	order, err := store.GetOrder(c.Request.Context(), s.db, id)
	if err != nil {
		respondError(c, err)
		return
	}

	privileged := user.Role == models.RoleSeller || user.Role == models.RoleStaff || user.Role == models.RoleAdmin
	if !privileged && order.BuyerID != user.ID {
		respondError(c, database.ErrForbidden)
		return
	}

	respondOK(c, "ok", order)
}

type statusPayload struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleUpdateOrderStatus(c *gin.Context) {
	user := currentUser(c)

	id, ok := s.orderIDParam(c)
	if !ok {
		return
	}

	var payload statusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, "status is required")
		return
	}

	order, err := store.UpdateOrderStatus(c.Request.Context(), s.db, id, payload.Status, user.ID, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, "status updated", order)
}
