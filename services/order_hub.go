package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lumme/lumme-api/models"
)

// Order event types
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

const (
	hubSendBuffer = 16
	hubWriteWait  = 10 * time.Second
	hubPongWait   = 60 * time.Second
	hubPingPeriod = (hubPongWait * 9) / 10
	hubReadLimit  = 512
)

// OrderEvent is pushed to subscribers when an order is placed or moves status
type OrderEvent struct {
	Type  string       `json:"type"`
	Order models.Order `json:"order"`
}

// OrderNotifier receives order events after the change is committed
type OrderNotifier interface {
	Publish(event OrderEvent)
}

// SellerTopic is the subscription topic for a shop's orders
func SellerTopic(sellerID uint) string {
	return fmt.Sprintf("seller:%d", sellerID)
}

// CustomerTopic is the subscription topic for a customer's orders
func CustomerTopic(customerID uint) string {
	return fmt.Sprintf("customer:%d", customerID)
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// OrderHub fans order events out to websocket subscribers by topic
type OrderHub struct {
	mu     sync.RWMutex
	topics map[string]map[*hubClient]struct{}
}

var orderHubInstance *OrderHub

// NewOrderHub creates an empty hub
func NewOrderHub() *OrderHub {
	return &OrderHub{topics: make(map[string]map[*hubClient]struct{})}
}

// InitOrderHub creates the process-wide hub
func InitOrderHub() *OrderHub {
	orderHubInstance = NewOrderHub()
	return orderHubInstance
}

// GetOrderHub returns the process-wide hub, nil before InitOrderHub
func GetOrderHub() *OrderHub {
	return orderHubInstance
}

// SetOrderHub replaces the process-wide hub (primarily for testing)
func SetOrderHub(hub *OrderHub) {
	orderHubInstance = hub
}

// Publish delivers the event to the order's seller and customer topics.
// Slow subscribers whose buffer is full miss the event.
func (h *OrderHub) Publish(event OrderEvent) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("order hub: failed to encode %s event: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, topic := range []string{SellerTopic(event.Order.SellerID), CustomerTopic(event.Order.CustomerID)} {
		for client := range h.topics[topic] {
			select {
			case client.send <- payload:
			default:
				log.Printf("order hub: dropping %s event for slow subscriber on %s", event.Type, topic)
			}
		}
	}
}

// SubscriberCount returns the number of live connections on topic
func (h *OrderHub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Serve subscribes conn to topic and blocks until the connection closes
func (h *OrderHub) Serve(conn *websocket.Conn, topic string) {
	client := &hubClient{conn: conn, send: make(chan []byte, hubSendBuffer)}
	h.register(topic, client)

	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(client, stop)
	}()

	h.readLoop(client)
	h.unregister(topic, client)
	close(stop)
	<-writerDone
	_ = conn.Close()
}

func (h *OrderHub) register(topic string, client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*hubClient]struct{})
	}
	h.topics[topic][client] = struct{}{}
}

func (h *OrderHub) unregister(topic string, client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.topics[topic], client)
	if len(h.topics[topic]) == 0 {
		delete(h.topics, topic)
	}
}

// readLoop discards client messages; it only exists to notice disconnects
func (h *OrderHub) readLoop(client *hubClient) {
	client.conn.SetReadLimit(hubReadLimit)
	_ = client.conn.SetReadDeadline(time.Now().Add(hubPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(hubPongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *OrderHub) writeLoop(client *hubClient, stop <-chan struct{}) {
	ticker := time.NewTicker(hubPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				// Unblocks readLoop
				_ = client.conn.Close()
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = client.conn.Close()
				return
			}
		case <-stop:
			_ = client.conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
			_ = client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
