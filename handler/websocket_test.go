package handler

import (
	"testing"

	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
)

func TestFeedRoomSharesOneSubscription(t *testing.T) {
	a := &websocket.Conn{}
	b := &websocket.Conn{}

	joinFeed(42, a)
	joinFeed(42, b)

	feedMu.Lock()
	assert.Len(t, feedClients[42], 2)
	assert.NotNil(t, feedSubs[42])
	feedMu.Unlock()

	leaveFeed(42, a)

	feedMu.Lock()
	assert.Len(t, feedClients[42], 1)
	assert.NotNil(t, feedSubs[42])
	feedMu.Unlock()

	// Last one out closes the room's subscription.
	leaveFeed(42, b)

	feedMu.Lock()
	assert.Nil(t, feedClients[42])
	assert.Nil(t, feedSubs[42])
	feedMu.Unlock()
}
