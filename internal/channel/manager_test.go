package channel

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parleychat/parley/internal/chat"
)

type fakeConn struct {
	frames chan []byte
	closed chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	written   []any
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case f := <-c.frames:
		return 1, f, nil
	case <-c.closed:
		return 0, nil, errors.New("use of closed connection")
	}
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) sent() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.written...)
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	urls  []string
	err   error
}

func (d *fakeDialer) Dial(url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	d.urls = append(d.urls, url)
	return conn, nil
}

func recvEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel event")
		return Event{}
	}
}

func TestManager_OpenConversationURL(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(d, "ws://chat.test", "tok123")

	require.NoError(t, m.OpenConversation(chat.KindDirect, 17))
	require.Equal(t, "ws://chat.test/ws/chat/direct/17/?token=tok123", d.urls[0])

	require.NoError(t, m.OpenConversation(chat.KindGroup, 5))
	require.Equal(t, "ws://chat.test/ws/chat/group/5/?token=tok123", d.urls[1])

	require.NoError(t, m.OpenNotifications())
	require.Equal(t, "ws://chat.test/ws/notifications/?token=tok123", d.urls[2])
}

func TestManager_ConversationOpenTracksLinkState(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(d, "ws://chat.test", "tok")

	require.False(t, m.ConversationOpen())

	require.NoError(t, m.OpenConversation(chat.KindDirect, 17))
	require.True(t, m.ConversationOpen())

	// Transport failure closes the link without any manager call.
	d.conns[0].Close()
	ev := recvEvent(t, m.Events())
	require.Equal(t, EventClosed, ev.Kind)
	require.False(t, m.ConversationOpen())

	require.NoError(t, m.OpenConversation(chat.KindDirect, 17))
	require.True(t, m.ConversationOpen())
	m.CloseConversation()
	require.False(t, m.ConversationOpen())
}

func TestManager_ConversationExclusivity(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(d, "ws://chat.test", "tok")

	require.NoError(t, m.OpenConversation(chat.KindDirect, 1))
	require.NoError(t, m.OpenConversation(chat.KindDirect, 2))
	require.Len(t, d.conns, 2)

	// The first link's close event precedes anything from the second.
	ev := recvEvent(t, m.Events())
	require.Equal(t, EventClosed, ev.Kind)
	require.Equal(t, SourceConversation, ev.Source)
	require.Nil(t, ev.Err)

	d.conns[1].frames <- []byte(`{"text":"hi"}`)
	ev = recvEvent(t, m.Events())
	require.Equal(t, EventFrame, ev.Kind)
	require.JSONEq(t, `{"text":"hi"}`, string(ev.Data))

	require.Equal(t, StateOpen, m.ConversationState())
}

func TestManager_FramesDeliveredInOrder(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(d, "ws://chat.test", "tok")
	require.NoError(t, m.OpenConversation(chat.KindGroup, 3))

	d.conns[0].frames <- []byte(`{"id":1}`)
	d.conns[0].frames <- []byte(`{"id":2}`)
	d.conns[0].frames <- []byte(`{"id":3}`)

	for want := 1; want <= 3; want++ {
		ev := recvEvent(t, m.Events())
		require.Equal(t, EventFrame, ev.Kind)
		var frame struct {
			ID int `json:"id"`
		}
		require.NoError(t, json.Unmarshal(ev.Data, &frame))
		require.Equal(t, want, frame.ID)
	}
}

func TestManager_MalformedFrameSkipped(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(d, "ws://chat.test", "tok")
	require.NoError(t, m.OpenConversation(chat.KindDirect, 1))

	d.conns[0].frames <- []byte(`{{{not json`)
	d.conns[0].frames <- []byte(`{"id":7}`)

	ev := recvEvent(t, m.Events())
	require.Equal(t, EventFrame, ev.Kind)
	require.JSONEq(t, `{"id":7}`, string(ev.Data))
	require.Equal(t, StateOpen, m.ConversationState())
}

func TestManager_TransportCloseEmitsError(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(d, "ws://chat.test", "tok")
	require.NoError(t, m.OpenConversation(chat.KindDirect, 1))

	// Server-side close: the conn dies without a local close call.
	require.NoError(t, d.conns[0].Close())

	ev := recvEvent(t, m.Events())
	require.Equal(t, EventClosed, ev.Kind)
	require.Error(t, ev.Err)
}

func TestManager_SendRules(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(d, "ws://chat.test", "tok")

	// No channel open: silently dropped.
	m.Send("lost")

	require.NoError(t, m.OpenConversation(chat.KindDirect, 1))
	m.Send("hello")
	require.Equal(t, []any{outbound{Text: "hello"}}, d.conns[0].sent())

	m.CloseConversation()
	m.Send("also lost")
	require.Len(t, d.conns[0].sent(), 1)
	require.Equal(t, StateClosed, m.ConversationState())
}

func TestManager_DialFailure(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	m := NewManager(d, "ws://chat.test", "tok")

	err := m.OpenConversation(chat.KindDirect, 1)
	require.Error(t, err)
	require.Equal(t, StateClosed, m.ConversationState())

	err = m.OpenNotifications()
	require.Error(t, err)
	require.Equal(t, StateClosed, m.NotificationState())
}

func TestManager_NotificationReplace(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(d, "ws://chat.test", "tok")

	require.NoError(t, m.OpenNotifications())
	require.NoError(t, m.OpenNotifications())
	require.Len(t, d.conns, 2)

	ev := recvEvent(t, m.Events())
	require.Equal(t, EventClosed, ev.Kind)
	require.Equal(t, SourceNotification, ev.Source)

	d.conns[1].frames <- []byte(`{"event":"group_added"}`)
	ev = recvEvent(t, m.Events())
	require.Equal(t, EventFrame, ev.Kind)
	require.Equal(t, StateOpen, m.NotificationState())
}

func TestManager_CloseShutsBothLinks(t *testing.T) {
	d := &fakeDialer{}
	m := NewManager(d, "ws://chat.test", "tok")
	require.NoError(t, m.OpenConversation(chat.KindDirect, 1))
	require.NoError(t, m.OpenNotifications())

	m.Close()

	sources := map[Source]bool{}
	for i := 0; i < 2; i++ {
		ev := recvEvent(t, m.Events())
		require.Equal(t, EventClosed, ev.Kind)
		sources[ev.Source] = true
	}
	require.True(t, sources[SourceConversation])
	require.True(t, sources[SourceNotification])
	require.Equal(t, StateClosed, m.ConversationState())
	require.Equal(t, StateClosed, m.NotificationState())
}
