package realtime

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"quickbite/internal/logger"

	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory Conn capturing everything written to it.
type fakeConn struct {
	mu     sync.Mutex
	sent   []any
	failed bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return errors.New("connection reset")
	}
	c.sent = append(c.sent, v)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.sent))
	copy(out, c.sent)
	return out
}

func newTestSession() (*Session, *fakeConn) {
	conn := &fakeConn{}
	return NewSession(conn), conn
}

func TestRegistryJoinIsIdempotent(t *testing.T) {
	reg := NewRegistry(logger.New("test"))
	sess, conn := newTestSession()

	reg.Join("order:42", sess)
	reg.Join("order:42", sess)

	require.Equal(t, 1, reg.MemberCount("order:42"))
	require.Equal(t, 1, reg.Publish("order:42", "ping"))
	require.Len(t, conn.messages(), 1)
}

func TestRegistryPublishTargetsOnlyTopicMembers(t *testing.T) {
	reg := NewRegistry(logger.New("test"))
	a, connA := newTestSession()
	b, connB := newTestSession()

	reg.Join("order:A", a)
	reg.Join("order:B", b)

	delivered := reg.Publish("order:A", "for A only")

	require.Equal(t, 1, delivered)
	require.Len(t, connA.messages(), 1)
	require.Empty(t, connB.messages())
}

func TestRegistryPublishToEmptyTopic(t *testing.T) {
	reg := NewRegistry(logger.New("test"))
	require.Equal(t, 0, reg.Publish("order:nobody", "lost"))
}

func TestRegistryRemoveSessionClearsAllTopics(t *testing.T) {
	reg := NewRegistry(logger.New("test"))
	sess, conn := newTestSession()

	reg.Join("order:1", sess)
	reg.Join("order:2", sess)
	reg.Join("admin:monitoring", sess)

	reg.RemoveSession(sess)

	require.Equal(t, 0, reg.MemberCount("order:1"))
	require.Equal(t, 0, reg.MemberCount("order:2"))
	require.Equal(t, 0, reg.MemberCount("admin:monitoring"))
	require.Equal(t, 0, reg.Publish("order:1", "gone"))
	require.Empty(t, conn.messages())

	// a second removal is a no-op
	reg.RemoveSession(sess)
}

func TestRegistryPublishSkipsFailedSessions(t *testing.T) {
	reg := NewRegistry(logger.New("test"))
	healthy, healthyConn := newTestSession()
	dead, deadConn := newTestSession()
	deadConn.failed = true

	reg.Join("order:7", healthy)
	reg.Join("order:7", dead)

	delivered := reg.Publish("order:7", "still moving")

	require.Equal(t, 1, delivered)
	require.Len(t, healthyConn.messages(), 1)
	require.Empty(t, deadConn.messages())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry(logger.New("test"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sess, _ := newTestSession()
			topic := fmt.Sprintf("order:%d", n%5)
			reg.Join(topic, sess)
			reg.Publish(topic, n)
			reg.RemoveSession(sess)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		require.Equal(t, 0, reg.MemberCount(fmt.Sprintf("order:%d", i)))
	}
}
