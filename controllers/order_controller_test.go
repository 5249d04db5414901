package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lumme/lumme-api/models"
	"github.com/lumme/lumme-api/services"
	"github.com/lumme/lumme-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

type OrderControllerTestSuite struct {
	suite.Suite
	db           *gorm.DB
	sellerUser   models.User
	seller       models.Seller
	customerUser models.User
	customer     models.Customer
	roses        models.Product
	lilies       models.Product
}

func (s *OrderControllerTestSuite) SetupTest() {
	t := s.T()
	s.db = testutil.UseTestDB(t)
	testutil.TestConfig(t)
	s.sellerUser, s.seller = testutil.CreateSeller(t, s.db, "Rose Garden")
	s.customerUser, s.customer = testutil.CreateCustomer(t, s.db)
	s.roses = testutil.CreateProduct(t, s.db, s.seller.ID, "Red Roses", 100, 5)
	s.lilies = testutil.CreateProduct(t, s.db, s.seller.ID, "White Lilies", 50, 1)
}

// routerAs builds the order routes with every request authenticated as user
func (s *OrderControllerTestSuite) routerAs(user models.User) *gin.Engine {
	router := setupTestRouter()
	orders := router.Group("/orders", testutil.MockAuth(user))
	orders.POST("", PlaceOrder)
	orders.GET("", ListOrders)
	orders.GET("/export", ExportOrders)
	orders.GET("/:id", GetOrder)
	orders.PUT("/:id/status", UpdateOrderStatus)
	return router
}

func (s *OrderControllerTestSuite) orderBody(items ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"items":            items,
		"delivery_address": "12 Tulip Street",
		"delivery_date":    "2026-10-20",
		"delivery_time":    "10:00-12:00",
		"personal_message": "Happy birthday",
	}
}

func item(productID uint, quantity int) map[string]interface{} {
	return map[string]interface{}{"product_id": productID, "quantity": quantity}
}

func (s *OrderControllerTestSuite) placeOrder() uint {
	w, response := performRequest(s.T(), s.routerAs(s.customerUser), http.MethodPost, "/orders",
		s.orderBody(item(s.roses.ID, 2), item(s.lilies.ID, 1)))
	s.Require().Equal(http.StatusCreated, w.Code)
	return uint(response["data"].(map[string]interface{})["id"].(float64))
}

func (s *OrderControllerTestSuite) TestPlaceOrder() {
	w, response := performRequest(s.T(), s.routerAs(s.customerUser), http.MethodPost, "/orders",
		s.orderBody(item(s.roses.ID, 2), item(s.lilies.ID, 1)))

	s.Equal(http.StatusCreated, w.Code)
	s.Equal(true, response["success"])
	data := response["data"].(map[string]interface{})
	s.Equal(350.0, data["total_amount"])
	s.Equal("pending", data["order_status"])
	s.Regexp(`^ORD-\d{8}-[A-Z0-9]{6}$`, data["order_number"])
	s.Len(data["items"], 2)

	lilies := testutil.Reload[models.Product](s.T(), s.db, s.lilies.ID)
	s.False(lilies.IsInStock)
}

func (s *OrderControllerTestSuite) TestPlaceOrderFailures() {
	tests := []struct {
		name           string
		user           models.User
		body           map[string]interface{}
		expectedStatus int
		expectedCode   string
	}{
		{"empty items", s.customerUser, s.orderBody(), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"zero quantity", s.customerUser, s.orderBody(item(s.roses.ID, 0)), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing address", s.customerUser, map[string]interface{}{"items": []interface{}{item(s.roses.ID, 1)}, "delivery_date": "2026-10-20"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown product", s.customerUser, s.orderBody(item(9999, 1)), http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"not enough stock", s.customerUser, s.orderBody(item(s.lilies.ID, 2)), http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"seller cannot buy", s.sellerUser, s.orderBody(item(s.roses.ID, 1)), http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w, response := performRequest(s.T(), s.routerAs(tt.user), http.MethodPost, "/orders", tt.body)
			s.Equal(tt.expectedStatus, w.Code)
			s.Equal(false, response["success"])
			s.Equal(tt.expectedCode, response["code"])
		})
	}

	var orders int64
	s.Require().NoError(s.db.Model(&models.Order{}).Count(&orders).Error)
	s.Zero(orders)
}

func (s *OrderControllerTestSuite) TestListAndGetOrders() {
	orderID := s.placeOrder()
	stranger, _ := testutil.CreateCustomer(s.T(), s.db)

	for _, user := range []models.User{s.customerUser, s.sellerUser} {
		w, response := performRequest(s.T(), s.routerAs(user), http.MethodGet, "/orders", nil)
		s.Equal(http.StatusOK, w.Code)
		s.Len(response["data"], 1)

		w, response = performRequest(s.T(), s.routerAs(user), http.MethodGet, fmt.Sprintf("/orders/%d", orderID), nil)
		s.Equal(http.StatusOK, w.Code)
		s.Equal(float64(orderID), response["data"].(map[string]interface{})["id"])
	}

	w, response := performRequest(s.T(), s.routerAs(stranger), http.MethodGet, "/orders", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Len(response["data"], 0)

	w, response = performRequest(s.T(), s.routerAs(stranger), http.MethodGet, fmt.Sprintf("/orders/%d", orderID), nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("FORBIDDEN", response["code"])

	w, response = performRequest(s.T(), s.routerAs(s.customerUser), http.MethodGet, "/orders/9999", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("ORDER_NOT_FOUND", response["code"])
}

func (s *OrderControllerTestSuite) TestUpdateOrderStatus() {
	orderID := s.placeOrder()
	path := fmt.Sprintf("/orders/%d/status", orderID)
	seller := s.routerAs(s.sellerUser)

	w, response := performRequest(s.T(), seller, http.MethodPut, path, map[string]string{"status": "preparing"})
	s.Equal(http.StatusOK, w.Code)
	s.Equal("preparing", response["data"].(map[string]interface{})["order_status"])

	w, response = performRequest(s.T(), seller, http.MethodPut, path, map[string]string{"status": "pending"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_STATUS_TRANSITION", response["code"])

	w, response = performRequest(s.T(), seller, http.MethodPut, path, map[string]string{"status": "lost"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("INVALID_STATUS", response["code"])

	w, response = performRequest(s.T(), seller, http.MethodPut, path, map[string]string{})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", response["code"])

	w, response = performRequest(s.T(), s.routerAs(s.customerUser), http.MethodPut, path, map[string]string{"status": "cancelled"})
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("FORBIDDEN", response["code"])

	w, _ = performRequest(s.T(), seller, http.MethodPut, path, map[string]string{"status": "cancelled"})
	s.Equal(http.StatusOK, w.Code)
	s.Equal(5, testutil.Reload[models.Product](s.T(), s.db, s.roses.ID).StockQuantity)
}

func (s *OrderControllerTestSuite) TestExportOrders() {
	s.placeOrder()

	w := httptest.NewRecorder()
	s.routerAs(s.sellerUser).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/export", nil))

	s.Equal(http.StatusOK, w.Code)
	s.Equal(services.OrderExportContentType, w.Header().Get("Content-Type"))
	s.Contains(w.Header().Get("Content-Disposition"), "orders-")

	file, err := xlsx.OpenBinary(w.Body.Bytes())
	s.Require().NoError(err)
	s.Require().Contains(file.Sheet, "Orders")
	s.Len(file.Sheet["Orders"].Rows, 2)
	s.Len(file.Sheet["Items"].Rows, 3)
}

func TestOrderControllerTestSuite(t *testing.T) {
	suite.Run(t, new(OrderControllerTestSuite))
}

func TestStreamOrders(t *testing.T) {
	db := testutil.UseTestDB(t)
	testutil.TestConfig(t)
	sellerUser, seller := testutil.CreateSeller(t, db, "Rose Garden")
	customerUser, _ := testutil.CreateCustomer(t, db)
	admin := testutil.CreateAdmin(t, db)
	product := testutil.CreateProduct(t, db, seller.ID, "Red Roses", 100, 5)

	t.Run("unavailable without a hub", func(t *testing.T) {
		services.SetOrderHub(nil)
		router := setupTestRouter()
		router.GET("/orders/stream", testutil.MockAuth(sellerUser), StreamOrders)
		w, response := performRequest(t, router, http.MethodGet, "/orders/stream", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "STREAM_UNAVAILABLE", response["code"])
	})

	hub := services.InitOrderHub()
	t.Cleanup(func() { services.SetOrderHub(nil) })

	t.Run("admins have no order feed", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/orders/stream", testutil.MockAuth(admin), StreamOrders)
		w, _ := performRequest(t, router, http.MethodGet, "/orders/stream", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("seller receives placed orders", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/orders/stream", testutil.MockAuth(sellerUser), StreamOrders)
		server := httptest.NewServer(router)
		defer server.Close()

		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/orders/stream", nil)
		require.NoError(t, err)
		defer conn.Close()

		topic := services.SellerTopic(seller.ID)
		require.Eventually(t, func() bool { return hub.SubscriberCount(topic) == 1 }, 2*time.Second, 10*time.Millisecond)

		customerRouter := setupTestRouter()
		customerRouter.POST("/orders", testutil.MockAuth(customerUser), PlaceOrder)
		w, _ := performRequest(t, customerRouter, http.MethodPost, "/orders", map[string]interface{}{
			"items":            []interface{}{item(product.ID, 1)},
			"delivery_address": "12 Tulip Street",
			"delivery_date":    "2026-10-20",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var event services.OrderEvent
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, services.EventOrderPlaced, event.Type)
		assert.Equal(t, seller.ID, event.Order.SellerID)
	})
}
