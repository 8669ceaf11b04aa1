package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinRoomDeduplicates(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	hub.JoinRoom("room-1", "alice")
	hub.JoinRoom("room-1", "alice")
	hub.JoinRoom("room-1", "bob")

	assert.Equal(t, []string{"alice", "bob"}, hub.RoomMembers("room-1"))
}

func TestLeaveRoomRemovesMember(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	hub.JoinRoom("room-1", "alice")
	hub.JoinRoom("room-1", "bob")
	hub.LeaveRoom("room-1", "alice")

	assert.Equal(t, []string{"bob"}, hub.RoomMembers("room-1"))

	hub.LeaveRoom("room-1", "ghost") // no-op
	assert.Equal(t, []string{"bob"}, hub.RoomMembers("room-1"))
}

func TestDropRoomForgetsMembership(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	hub.JoinRoom("room-1", "alice")
	hub.DropRoom("room-1")

	assert.Empty(t, hub.RoomMembers("room-1"))
}

func TestSendToUnknownUser(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	err := hub.SendToUser("ghost", Message{Type: TypePong})
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestConnectionSendQueuesWithoutBlocking(t *testing.T) {
	conn := NewConnection(nil, zerolog.Nop())

	msg, err := NewMessage(TypeGameStarted, nil)
	require.NoError(t, err)

	for i := 0; i < 256; i++ {
		require.NoError(t, conn.Send(msg))
	}
	// Queue full: the send is rejected instead of blocking the caller.
	assert.ErrorIs(t, conn.Send(msg), ErrSendQueueFull)
}

func TestUpgraderDeliversThroughConnection(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := Upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		conn := NewConnection(raw, zerolog.Nop())
		hub.RegisterConnection("alice", conn)
		go conn.WritePump()
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()

	msg, err := NewMessage(TypePong, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return hub.SendToUser("alice", msg) == nil
	}, time.Second, 10*time.Millisecond)

	var got Message
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, TypePong, got.Type)
}

func TestBroadcastSkipsDisconnectedMembers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.JoinRoom("room-1", "alice")

	msg, err := NewMessage(TypeQuizEnded, QuizEndedPayload{})
	require.NoError(t, err)

	// alice joined a room but never registered a connection
	assert.ErrorIs(t, hub.BroadcastToRoom("room-1", msg), ErrConnectionNotFound)
}
