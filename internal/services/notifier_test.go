package services

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventHTMLEscapes(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := eventHTML(Event{Kind: EventVerified, UserID: "1", Habbo: "<b>Bob</b>", Evicted: []string{"2", "3"}, At: at})

	assert.Contains(t, out, "<b>verified</b>")
	assert.Contains(t, out, "habbo: <code>&lt;b&gt;Bob&lt;/b&gt;</code>")
	assert.Contains(t, out, "evicted: <code>2, 3</code>")
	assert.Contains(t, out, "at: 2024-03-01 12:00:00 UTC")
}

func TestTelegramNotifier(t *testing.T) {
	bot := &fakeTelegram{}
	n := &TelegramNotifier{bot: bot, chatID: 99}

	require.NoError(t, n.Notify(context.Background(), Event{Kind: EventReset, UserID: "1"}))
	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(99), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "<b>reset</b>")

	bot.err = errors.New("429")
	assert.Error(t, n.Notify(context.Background(), Event{Kind: EventReset}))

	silent := &TelegramNotifier{bot: bot}
	assert.NoError(t, silent.Notify(context.Background(), Event{Kind: EventReset}))
	assert.Len(t, bot.sent, 2)
}

func TestMultiNotifierJoinsErrors(t *testing.T) {
	ok := new(mockNotifier)
	ok.On("Notify", mock.Anything, mock.Anything).Return(nil)
	bad := new(mockNotifier)
	bad.On("Notify", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := MultiNotifier{ok, nil, bad}.Notify(context.Background(), Event{Kind: EventRepair})
	assert.EqualError(t, err, "smtp down")
	ok.AssertNumberOfCalls(t, "Notify", 1)
}

func TestNotifyStampsTime(t *testing.T) {
	n := new(mockNotifier)
	n.On("Notify", mock.Anything, mock.MatchedBy(func(ev Event) bool { return !ev.At.IsZero() })).Return(nil).Once()

	notify(context.Background(), n, Event{Kind: EventVerified})
	notify(context.Background(), nil, Event{Kind: EventVerified})
	n.AssertExpectations(t)
}

func TestAttemptRegistry(t *testing.T) {
	r := NewAttemptRegistry()

	a, ok := r.Begin("1", "Alice", time.Minute)
	require.True(t, ok)
	_, ok = r.Begin("1", "Bob", time.Minute)
	assert.False(t, ok)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, a.ID, snap[0].ID)

	assert.True(t, r.Cancel("1"))
	assert.True(t, r.Cancel("1"), "cancelling twice is harmless")
	select {
	case <-a.Cancelled():
	default:
		t.Fatal("attempt not cancelled")
	}

	r.End(a)
	assert.False(t, r.Cancel("1"))
	_, ok = r.Begin("1", "Bob", time.Minute)
	assert.True(t, ok)
}

// gatedNotifier holds each delivery until release is closed or the delivery context ends.
type gatedNotifier struct {
	release chan struct{}
	started chan bool
	got     chan Event
}

func newGatedNotifier() *gatedNotifier {
	return &gatedNotifier{
		release: make(chan struct{}),
		started: make(chan bool, 8),
		got:     make(chan Event, 8),
	}
}

func (g *gatedNotifier) Notify(ctx context.Context, ev Event) error {
	_, hasDeadline := ctx.Deadline()
	g.started <- hasDeadline
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	g.got <- ev
	return nil
}

func TestAsyncNotifierQueuesWithoutBlocking(t *testing.T) {
	g := newGatedNotifier()
	a := NewAsyncNotifier(g, time.Minute, 1)

	require.NoError(t, a.Notify(context.Background(), Event{Kind: EventVerified, UserID: "1"}))
	select {
	case hasDeadline := <-g.started:
		assert.True(t, hasDeadline, "deliveries run under a timeout")
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the event")
	}

	require.NoError(t, a.Notify(context.Background(), Event{Kind: EventVerified, UserID: "2"}))
	assert.ErrorIs(t, a.Notify(context.Background(), Event{Kind: EventVerified, UserID: "3"}), ErrNotifyQueueFull)

	close(g.release)
	a.Close()
	require.Len(t, g.got, 2)
	assert.Equal(t, "1", (<-g.got).UserID)
	assert.Equal(t, "2", (<-g.got).UserID)
	assert.ErrorIs(t, a.Notify(context.Background(), Event{Kind: EventReset}), ErrNotifierClosed)
}

func TestAsyncNotifierTimesOutStuckChannel(t *testing.T) {
	g := newGatedNotifier()
	a := NewAsyncNotifier(g, 20*time.Millisecond, 4)

	require.NoError(t, a.Notify(context.Background(), Event{Kind: EventRepair}))
	<-g.started

	closed := make(chan struct{})
	go func() {
		a.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("stuck channel held the worker past its timeout")
	}
	assert.Empty(t, g.got)
}

func TestTelegramNotifierHonoursContext(t *testing.T) {
	bot := &fakeTelegram{}
	n := &TelegramNotifier{bot: bot, chatID: 99}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.Notify(ctx, Event{Kind: EventReset}), context.Canceled)
	assert.Empty(t, bot.sent)
}
