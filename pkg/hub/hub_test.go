package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-figure/pkg/kinematics"
)

func startHub(t *testing.T, buffer int) *Hub {
	t.Helper()
	h := New("test", buffer)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h
}

func recv(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case m, ok := <-ch:
		require.True(t, ok, "queue closed")
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no message")
	}
	return Message{}
}

func TestHub_FanOut(t *testing.T) {
	h := startHub(t, 8)
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelB()
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, h.BroadcastJSON(map[string]int{"n": 1}))
	assert.JSONEq(t, `{"n":1}`, string(recv(t, a).Data))
	assert.JSONEq(t, `{"n":1}`, string(recv(t, b).Data))

	cancelA()
	_, ok := <-a
	assert.False(t, ok, "unsubscribe closes the queue")
	assert.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := startHub(t, 1)
	slow, _ := h.Subscribe()

	for i := 0; i < 3; i++ {
		require.NoError(t, h.BroadcastJSON(i))
	}
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)

	first := recv(t, slow)
	assert.Equal(t, "0", string(first.Data))
	_, ok := <-slow
	assert.False(t, ok)

	_, dropped := h.Stats()
	assert.Equal(t, uint64(1), dropped)
}

func TestHub_StopClosesClients(t *testing.T) {
	h := New("stop", 4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	q, unsubscribe := h.Subscribe()
	cancel()
	<-done

	_, ok := <-q
	assert.False(t, ok)
	unsubscribe() // must not block after stop

	late, _ := h.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing to a stopped hub yields a closed queue")
}

func TestEncodeFrame(t *testing.T) {
	msg, err := EncodeFrame(kinematics.Snapshot{Frame: 3})
	require.NoError(t, err)

	var env FrameEnvelope
	require.NoError(t, json.Unmarshal(msg.Data, &env))
	assert.Equal(t, "frame", env.Type)
	assert.Equal(t, uint64(3), env.Frame.Frame)
}

// fakeConn records writes; reads block until closed.
type fakeConn struct {
	mu      sync.Mutex
	written []string
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn { return &fakeConn{closed: make(chan struct{})} }

func (c *fakeConn) SetReadLimit(int64) {}
func (c *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}
func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind == websocket.TextMessage {
		c.written = append(c.written, string(data))
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

func TestClient_PumpsToConn(t *testing.T) {
	h := startHub(t, 4)
	conn := newFakeConn()
	c := NewClient(h, conn)
	require.NotNil(t, c)

	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()

	h.Broadcast(NewJSONMessage([]byte(`{"type":"frame"}`)))
	assert.Eventually(t, func() bool { return len(conn.texts()) == 1 }, time.Second, time.Millisecond)

	conn.Close()
	<-done
	assert.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)
}
