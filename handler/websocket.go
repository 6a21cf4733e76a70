package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"

	"alumni_events/config"

	"github.com/gofiber/contrib/websocket"
	"github.com/redis/go-redis/v9"
)

var (
	redisClient = redis.NewClient(&redis.Options{Addr: redisAddr()})

	feedClients = make(map[uint]map[*websocket.Conn]bool)
	feedSubs    = make(map[uint]*redis.PubSub)
	feedMu      sync.Mutex
)

func redisAddr() string {
	if addr := config.Config("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func checkinChannel(eventId uint) string {
	return fmt.Sprintf("checkin:%d", eventId)
}

// BroadcastScan pushes a scan onto the event's live feed. Publishing goes
// through redis so every instance behind the load balancer fans out to
// its own websocket clients.
func BroadcastScan(eventId uint, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Println("broadcast scan:", err)
		return
	}
	if err := redisClient.Publish(context.Background(), checkinChannel(eventId), body).Err(); err != nil {
		log.Println("broadcast scan:", err)
	}
}

// joinFeed adds a connection to the event's room. The first member of a
// room opens the room's single redis subscription.
func joinFeed(eventId uint, c *websocket.Conn) {
	feedMu.Lock()
	defer feedMu.Unlock()

	if feedClients[eventId] == nil {
		feedClients[eventId] = make(map[*websocket.Conn]bool)
	}
	feedClients[eventId][c] = true

	if feedSubs[eventId] == nil {
		pubsub := redisClient.Subscribe(context.Background(), checkinChannel(eventId))
		feedSubs[eventId] = pubsub
		go fanOutFeed(eventId, pubsub)
	}
}

// leaveFeed removes a connection; the last member leaving closes the
// room's subscription, which ends its fan-out loop.
func leaveFeed(eventId uint, c *websocket.Conn) {
	feedMu.Lock()
	defer feedMu.Unlock()

	if feedClients[eventId] != nil {
		delete(feedClients[eventId], c)
		if len(feedClients[eventId]) == 0 {
			delete(feedClients, eventId)
		}
	}
	if feedClients[eventId] == nil && feedSubs[eventId] != nil {
		feedSubs[eventId].Close()
		delete(feedSubs, eventId)
	}
}

// fanOutFeed relays one event's redis channel to every dashboard in the
// room. One loop per room, so each scan is delivered to each client
// exactly once.
func fanOutFeed(eventId uint, pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		payload := []byte(msg.Payload)

		feedMu.Lock()
		for conn := range feedClients[eventId] {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				delete(feedClients[eventId], conn)
			}
		}
		feedMu.Unlock()
	}
}

// CheckinFeed streams scans for one event to connected dashboards.
func CheckinFeed(c *websocket.Conn) {
	id64, _ := strconv.ParseUint(c.Params("id"), 10, 64)
	eventId := uint(id64)

	joinFeed(eventId, c)
	defer func() {
		leaveFeed(eventId, c)
		c.Close()
	}()

	// Hold the connection; reads only notice the client going away.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
