package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lumme/lumme-api/applog"
	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/models"
	"github.com/lumme/lumme-api/services"
)

// OrderItemRequest is one line of a checkout
type OrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// PlaceOrderRequest represents the request body for placing an order (customers only)
type PlaceOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	DeliveryAddress string             `json:"delivery_address" binding:"required"`
	DeliveryDate    string             `json:"delivery_date" binding:"required"`
	DeliveryTime    string             `json:"delivery_time"`
	PersonalMessage string             `json:"personal_message"`
	PaymentMethod   string             `json:"payment_method"`
}

// UpdateOrderStatusRequest represents the request body for moving an order along
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

var orderStreamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers are already authenticated by the token; CORS is enforced on the REST routes
	CheckOrigin: func(r *http.Request) bool { return true },
}

func orderService() *services.OrderService {
	cfg := config.GetConfig()
	return services.NewOrderService(config.GetDB(), cfg.DeliveryFee, services.GetOrderHub())
}

// PlaceOrder handles POST /api/orders - checks out a single shop's products
func PlaceOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	lines := make([]services.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, services.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := orderService().PlaceOrder(c.Request.Context(), services.PlaceOrderInput{
		UserID:          user.ID,
		Items:           lines,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		DeliveryTime:    req.DeliveryTime,
		PersonalMessage: req.PersonalMessage,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	applog.Audit(c, "order_placed", map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount,
	})
	respondOK(c, http.StatusCreated, order)
}

// ListOrders handles GET /api/orders - the caller's purchases or shop orders
func ListOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orders, err := orderService().ListOrders(c.Request.Context(), *user)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, orders)
}

// GetOrder handles GET /api/orders/:id - visible to the order's customer and seller
func GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := orderService().GetOrder(c.Request.Context(), *user, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /api/orders/:id/status - owning seller only
func UpdateOrderStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := orderService().UpdateOrderStatus(c.Request.Context(), user.ID, orderID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	applog.Audit(c, "order_status_changed", map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	})
	respondOK(c, http.StatusOK, order)
}

// ExportOrders handles GET /api/orders/export - the order list as an xlsx workbook
func ExportOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	orders, err := orderService().ListOrders(c.Request.Context(), *user)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", services.OrderExportContentType)
	c.Status(http.StatusOK)
	if err := services.WriteOrdersWorkbook(c.Writer, orders); err != nil {
		applog.Error(c, "order_export_failed", err, nil)
	}
}

// StreamOrders handles GET /api/orders/stream - a websocket feed of order
// events for the caller's shop or customer profile
func StreamOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	hub := services.GetOrderHub()
	if hub == nil {
		respondFailure(c, http.StatusServiceUnavailable, "STREAM_UNAVAILABLE", "Order stream is not available")
		return
	}

	profile, err := services.NewUserService(config.GetDB()).GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	var topic string
	switch {
	case user.Role == models.RoleSeller && profile.Seller != nil:
		topic = services.SellerTopic(profile.Seller.ID)
	case user.Role == models.RoleCustomer && profile.Customer != nil:
		topic = services.CustomerTopic(profile.Customer.ID)
	default:
		respondFailure(c, http.StatusForbidden, "FORBIDDEN", "Only customers and sellers can follow orders")
		return
	}

	conn, err := orderStreamUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already wrote the handshake error
		applog.Error(c, "order_stream_upgrade_failed", err, nil)
		return
	}

	applog.Info(c, "order_stream_opened", map[string]any{"topic": topic})
	hub.Serve(conn, topic)
}
