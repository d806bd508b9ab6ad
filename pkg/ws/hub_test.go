package ws

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/logger"
)

type fakeConn struct {
	closed      chan struct{}
	blockWrites bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, context.Canceled
}

func (f *fakeConn) WriteMessage(int, []byte) error {
	if f.blockWrites {
		<-f.closed
	}
	return nil
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) Close() error {
	select {
	case <-f.closed:
	default:
		close(f.closed)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		SendQueueSize:  4,
		WriteTimeout:   time.Second,
		PongTimeout:    time.Minute,
		MaxMessageSize: 4096,
	}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func attachTestClient(t *testing.T, hub *Hub) (*Client, *fakeConn) {
	t.Helper()
	return attachConn(t, hub, newFakeConn())
}

func attachConn(t *testing.T, hub *Hub, conn *fakeConn) (*Client, *fakeConn) {
	t.Helper()
	client := Attach(context.Background(), hub, conn, uuid.New(), testChatConfig(), testLogger(), nil, nil)
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.clients[client]
		return ok
	}, time.Second, 5*time.Millisecond)
	return client, conn
}

func TestHubJoinAndBroadcast(t *testing.T) {
	hub, _ := startHub(t)

	sender, _ := attachTestClient(t, hub)
	receiver, _ := attachTestClient(t, hub)

	hub.Join(sender, "chat_1")
	hub.Join(receiver, "chat_1")
	require.Equal(t, 2, hub.RoomSize("chat_1"))

	hub.Broadcast("chat_1", []byte(`{"type":"message"}`), sender)

	require.Eventually(t, func() bool {
		select {
		case payload := <-receiver.send:
			require.JSONEq(t, `{"type":"message"}`, string(payload))
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// Sender was excluded.
	select {
	case <-sender.send:
		t.Fatal("sender should not receive its own broadcast")
	default:
	}
}

func TestHubLeaveEmptyRoomCleanup(t *testing.T) {
	hub, _ := startHub(t)

	client, _ := attachTestClient(t, hub)
	hub.Join(client, "chat_9")
	require.Equal(t, 1, hub.RoomSize("chat_9"))

	hub.Leave(client, "chat_9")
	require.Equal(t, 0, hub.RoomSize("chat_9"))

	hub.mu.RLock()
	_, exists := hub.rooms["chat_9"]
	hub.mu.RUnlock()
	require.False(t, exists, "empty room should be deleted")
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)

	blocked := newFakeConn()
	blocked.blockWrites = true
	slow, conn := attachConn(t, hub, blocked)
	hub.Join(slow, "chat_2")

	// The write pump is stuck on the first frame, so the rest fill the
	// queue until the hub gives up on the connection.
	for i := 0; i < cap(slow.send)+2; i++ {
		hub.Broadcast("chat_2", []byte("overflow"), nil)
	}

	require.Eventually(t, func() bool {
		select {
		case <-conn.closed:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)

	_, conn := attachTestClient(t, hub)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case <-conn.closed:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
