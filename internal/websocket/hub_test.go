package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allowOnly(userIDs ...string) MembershipChecker {
	allowed := map[string]struct{}{}
	for _, id := range userIDs {
		allowed[id] = struct{}{}
	}
	return func(ctx context.Context, userID, childID string) (bool, error) {
		_, ok := allowed[userID]
		return ok, nil
	}
}

func addClient(h *Hub, userID string) *Client {
	client := &Client{ID: userID, Send: make(chan []byte, 8)}
	h.mu.Lock()
	h.Clients[userID] = client
	h.mu.Unlock()
	return client
}

func TestSubscribeChecksMembership(t *testing.T) {
	h := NewHub(allowOnly("member"))

	err := h.Subscribe(context.Background(), "member", "child-1")
	require.NoError(t, err)
	assert.Equal(t, 1, h.FeedSubscriberCount("child-1"))

	err = h.Subscribe(context.Background(), "stranger", "child-1")
	assert.ErrorIs(t, err, ErrNotMember)
	assert.Equal(t, 1, h.FeedSubscriberCount("child-1"))
}

func TestSubscribeCheckerFailure(t *testing.T) {
	checkErr := errors.New("db down")
	h := NewHub(func(ctx context.Context, userID, childID string) (bool, error) {
		return false, checkErr
	})

	err := h.Subscribe(context.Background(), "u1", "child-1")
	assert.ErrorIs(t, err, checkErr)
	assert.Zero(t, h.FeedSubscriberCount("child-1"))
}

func TestBroadcastToFeedExcludesAuthor(t *testing.T) {
	h := NewHub(allowOnly("author", "reader"))
	author := addClient(h, "author")
	reader := addClient(h, "reader")

	require.NoError(t, h.Subscribe(context.Background(), "author", "child-1"))
	require.NoError(t, h.Subscribe(context.Background(), "reader", "child-1"))

	h.BroadcastToFeed("child-1", NewEvent(EventMessageCreated, FeedPayload{ChildID: "child-1"}), "author")

	select {
	case data := <-reader.Send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, EventMessageCreated, msg.Type)
	default:
		t.Fatal("reader received nothing")
	}

	select {
	case <-author.Send:
		t.Fatal("author should not receive their own broadcast")
	default:
	}
}

func TestBroadcastSkipsUnsubscribed(t *testing.T) {
	h := NewHub(allowOnly("member"))
	client := addClient(h, "member")

	// online but not subscribed to this feed
	h.BroadcastToFeed("child-1", NewEvent(EventMessageCreated, nil), "")

	select {
	case <-client.Send:
		t.Fatal("unsubscribed client received a feed broadcast")
	default:
	}
}

func TestBroadcastToUser(t *testing.T) {
	h := NewHub(allowOnly("member"))
	client := addClient(h, "member")

	h.BroadcastToUser("member", NewEvent(EventMentioned, nil))
	h.BroadcastToUser("offline", NewEvent(EventMentioned, nil))

	select {
	case data := <-client.Send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, EventMentioned, msg.Type)
	default:
		t.Fatal("client received nothing")
	}
}

func TestUnsubscribeDropsEmptyFeeds(t *testing.T) {
	h := NewHub(allowOnly("member"))
	require.NoError(t, h.Subscribe(context.Background(), "member", "child-1"))
	require.Equal(t, 1, h.FeedSubscriberCount("child-1"))

	h.Unsubscribe("member", "child-1")
	assert.Zero(t, h.FeedSubscriberCount("child-1"))

	h.mu.RLock()
	_, ok := h.feeds["child-1"]
	h.mu.RUnlock()
	assert.False(t, ok)
}

func TestOnlinePresence(t *testing.T) {
	h := NewHub(allowOnly("member"))
	assert.False(t, h.IsUserOnline("member"))
	assert.Zero(t, h.GetOnlineCount())

	addClient(h, "member")
	assert.True(t, h.IsUserOnline("member"))
	assert.Equal(t, 1, h.GetOnlineCount())
}
