package relay

import (
	"sync"
	"testing"
	"time"

	"github.com/smartbookmarks/smartbookmarks/internal/domain"
	"github.com/smartbookmarks/smartbookmarks/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects delivered messages for assertions.
type recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *recorder) add(m Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *recorder) all() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

func TestBookmarkChanged_FillsID(t *testing.T) {
	b := &domain.Bookmark{ID: "bm-1"}
	msg := BookmarkChanged("user-1", domain.ActionInsert, b, "")

	assert.Equal(t, KindBookmarkChanged, msg.Kind)
	assert.Equal(t, "bm-1", msg.BookmarkID)
	assert.Equal(t, "user-1", msg.UserID)
}

func TestLocal_PublishReachesOthersNotSelf(t *testing.T) {
	bus := NewLocal(logger.Discard(), nil)
	a := bus.Open(DefaultChannel)
	b := bus.Open(DefaultChannel)
	other := bus.Open("other-channel")
	t.Cleanup(func() { _ = a.Close(); _ = b.Close(); _ = other.Close() })

	var gotA, gotB, gotOther recorder
	a.OnMessage(gotA.add)
	b.OnMessage(gotB.add)
	other.OnMessage(gotOther.add)

	a.Publish(BookmarkChanged("user-1", domain.ActionDelete, nil, "bm-1"))

	require.Eventually(t, func() bool { return gotB.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "bm-1", gotB.all()[0].BookmarkID)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, gotA.len(), "publisher must not receive its own message")
	assert.Zero(t, gotOther.len(), "channels are isolated")
}

func TestLocal_PreservesPublisherOrder(t *testing.T) {
	bus := NewLocal(logger.Discard(), nil)
	a := bus.Open(DefaultChannel)
	b := bus.Open(DefaultChannel)
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })

	var got recorder
	b.OnMessage(got.add)

	for _, id := range []string{"1", "2", "3"} {
		a.Publish(BookmarkChanged("u", domain.ActionDelete, nil, id))
	}

	require.Eventually(t, func() bool { return got.len() == 3 }, time.Second, 5*time.Millisecond)
	msgs := got.all()
	assert.Equal(t, []string{"1", "2", "3"}, []string{msgs[0].BookmarkID, msgs[1].BookmarkID, msgs[2].BookmarkID})
}

func TestLocal_CloseIsIdempotentAndStopsDelivery(t *testing.T) {
	bus := NewLocal(logger.Discard(), nil)
	a := bus.Open(DefaultChannel)
	b := bus.Open(DefaultChannel)
	assert.Equal(t, 2, bus.Members(DefaultChannel))

	var got recorder
	b.OnMessage(got.add)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 1, bus.Members(DefaultChannel))

	a.Publish(BookmarkChanged("u", domain.ActionDelete, nil, "x"))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, got.len())

	require.NoError(t, a.Close())
	assert.Zero(t, bus.Members(DefaultChannel))

	assert.NotPanics(t, func() { a.Publish(Message{}) }, "publish after close is a no-op")
}

func TestNoop(t *testing.T) {
	h := Noop().Open(DefaultChannel)
	h.OnMessage(func(Message) { t.Fatal("noop relay must never deliver") })

	h.Publish(BookmarkChanged("u", domain.ActionInsert, &domain.Bookmark{ID: "1"}, ""))

	assert.NoError(t, h.Close())
	assert.NoError(t, h.Close())
}
