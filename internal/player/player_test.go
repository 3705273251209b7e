package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrorec/internal/event"
)

// sinkCall records one dispatched sink operation.
type sinkCall struct {
	op     string
	key    string
	x, y   int
	amount int
	at     time.Time
}

// fakeSink records calls and can be told to fail selected operations.
type fakeSink struct {
	mu    sync.Mutex
	calls []sinkCall
	fail  map[string]error
}

func newFakeSink() *fakeSink {
	return &fakeSink{fail: make(map[string]error)}
}

func (f *fakeSink) record(c sinkCall) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[c.op]; err != nil {
		return err
	}
	c.at = time.Now()
	f.calls = append(f.calls, c)
	return nil
}

func (f *fakeSink) MoveTo(x, y int) error { return f.record(sinkCall{op: "move", x: x, y: y}) }
func (f *fakeSink) Click(button string) error {
	return f.record(sinkCall{op: "click", key: button})
}
func (f *fakeSink) KeyDown(key string) error { return f.record(sinkCall{op: "down", key: key}) }
func (f *fakeSink) KeyUp(key string) error   { return f.record(sinkCall{op: "up", key: key}) }
func (f *fakeSink) ScrollVertical(amount int) error {
	return f.record(sinkCall{op: "vscroll", amount: amount})
}
func (f *fakeSink) ScrollHorizontal(amount int) error {
	return f.record(sinkCall{op: "hscroll", amount: amount})
}

func (f *fakeSink) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.op
	}
	return out
}

func (f *fakeSink) snapshot() []sinkCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sinkCall(nil), f.calls...)
}

func testOptions() Options {
	return Options{
		Slice:      5 * time.Millisecond,
		Refractory: time.Nanosecond,
		Logger:     zerolog.Nop(),
	}
}

func pos(x, y int) *event.Point { return &event.Point{X: x, Y: y} }

func TestEmptyRecordingCompletes(t *testing.T) {
	sink := newFakeSink()
	res := New(sink, testOptions()).Play(context.Background(), event.Recording{})

	assert.Equal(t, Completed, res.Reason)
	assert.Equal(t, 0, res.Executed)
	assert.NoError(t, res.Err)
	assert.Empty(t, sink.calls)
}

func TestReplaysClickAndKeysWithTiming(t *testing.T) {
	sink := newFakeSink()
	rec := event.Recording{
		{Type: event.Click, Key: event.Button("left"), Pos: pos(100, 200)},
		{Delta: 150 * time.Millisecond, Type: event.KeyDown, Key: event.Char("a")},
		{Delta: 20 * time.Millisecond, Type: event.KeyUp, Key: event.Char("a")},
	}

	start := time.Now()
	res := New(sink, testOptions()).Play(context.Background(), rec)

	require.Equal(t, Completed, res.Reason)
	assert.Equal(t, 3, res.Executed)

	calls := sink.snapshot()
	require.Equal(t, []string{"move", "click", "down", "up"}, sink.ops())
	assert.Equal(t, 100, calls[0].x)
	assert.Equal(t, 200, calls[0].y)
	assert.Equal(t, "left", calls[1].key)
	assert.Equal(t, "a", calls[2].key)

	// The KeyDown waits ~150ms after the click, the KeyUp ~20ms more.
	assert.GreaterOrEqual(t, calls[2].at.Sub(start), 140*time.Millisecond)
	assert.Less(t, calls[3].at.Sub(start), 400*time.Millisecond)
}

func TestNamedKeysTranslated(t *testing.T) {
	sink := newFakeSink()
	rec := event.Recording{
		{Type: event.KeyDown, Key: event.Named("ctrl_l")},
		{Type: event.KeyUp, Key: event.Named("ctrl_l")},
	}

	res := New(sink, testOptions()).Play(context.Background(), rec)

	require.Equal(t, Completed, res.Reason)
	calls := sink.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "ctrlleft", calls[0].key)
	assert.Equal(t, "ctrlleft", calls[1].key)
}

func TestScrollMultipliedByUnit(t *testing.T) {
	sink := newFakeSink()
	rec := event.Recording{
		{Type: event.Scroll, Key: event.Wheel(), Pos: pos(10, 10), Scroll: &event.ScrollDelta{DX: -1, DY: 2}},
	}

	res := New(sink, testOptions()).Play(context.Background(), rec)

	require.Equal(t, Completed, res.Reason)
	require.Equal(t, []string{"move", "vscroll", "hscroll"}, sink.ops())
	calls := sink.snapshot()
	assert.Equal(t, 2*DefaultScrollUnit, calls[1].amount)
	assert.Equal(t, -1*DefaultScrollUnit, calls[2].amount)
}

func TestEscapeKeyAbortsBeforeDispatch(t *testing.T) {
	sink := newFakeSink()
	rec := event.Recording{
		{Type: event.KeyDown, Key: event.Char("a")},
		{Type: event.KeyDown, Key: event.Named("esc")},
		{Type: event.KeyDown, Key: event.Char("b")},
	}

	res := New(sink, testOptions()).Play(context.Background(), rec)

	assert.Equal(t, AbortedByEscape, res.Reason)
	assert.Equal(t, 1, res.Executed)
	assert.NoError(t, res.Err)

	// "a" was pressed and never released in the recording; the abort path
	// must synthesize the release. The sentinel itself is never dispatched.
	assert.Equal(t, []string{"down", "up"}, sink.ops())
	calls := sink.snapshot()
	assert.Equal(t, "a", calls[0].key)
	assert.Equal(t, "a", calls[1].key)
}

func TestUnknownEventTypeIsFatal(t *testing.T) {
	sink := newFakeSink()
	rec := event.Recording{
		{Type: event.KeyDown, Key: event.Char("a")},
		{Type: event.KeyUp, Key: event.Char("a")},
		{Type: event.Invalid},
	}

	res := New(sink, testOptions()).Play(context.Background(), rec)

	assert.Equal(t, AbortedByError, res.Reason)
	assert.Equal(t, 2, res.Executed)
	assert.ErrorIs(t, res.Err, ErrMalformedEvent)
}

func TestClickWithoutPositionIsFatal(t *testing.T) {
	sink := newFakeSink()
	rec := event.Recording{{Type: event.Click, Key: event.Button("left")}}

	res := New(sink, testOptions()).Play(context.Background(), rec)

	assert.Equal(t, AbortedByError, res.Reason)
	assert.ErrorIs(t, res.Err, ErrMalformedEvent)
	assert.Empty(t, sink.calls)
}

func TestFailedMoveSkipsClickAndContinues(t *testing.T) {
	sink := newFakeSink()
	sink.fail["move"] = errors.New("display asleep")
	rec := event.Recording{
		{Type: event.Click, Key: event.Button("left"), Pos: pos(1, 2)},
		{Type: event.KeyDown, Key: event.Char("a")},
		{Type: event.KeyUp, Key: event.Char("a")},
	}

	res := New(sink, testOptions()).Play(context.Background(), rec)

	assert.Equal(t, Completed, res.Reason)
	assert.Equal(t, 3, res.Executed)
	assert.Equal(t, []string{"down", "up"}, sink.ops(), "click at an unknown position must be skipped entirely")
}

func TestFailedClickContinues(t *testing.T) {
	sink := newFakeSink()
	sink.fail["click"] = errors.New("injection blocked")
	rec := event.Recording{
		{Type: event.Click, Key: event.Button("left"), Pos: pos(1, 2)},
		{Type: event.KeyDown, Key: event.Char("a")},
		{Type: event.KeyUp, Key: event.Char("a")},
	}

	res := New(sink, testOptions()).Play(context.Background(), rec)

	assert.Equal(t, Completed, res.Reason)
	assert.Equal(t, []string{"move", "down", "up"}, sink.ops())
}

func TestContextCancelMidWait(t *testing.T) {
	sink := newFakeSink()
	rec := event.Recording{
		{Type: event.KeyDown, Key: event.Char("a")},
		{Delta: 5 * time.Second, Type: event.KeyUp, Key: event.Char("a")},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := New(sink, testOptions()).Play(ctx, rec)

	assert.Equal(t, AbortedByRequest, res.Reason)
	assert.Equal(t, 1, res.Executed)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "cancel must be honored within a few slices")

	// The held "a" is force-released on the way out.
	assert.Equal(t, []string{"down", "up"}, sink.ops())
}

func TestAbortMidWait(t *testing.T) {
	sink := newFakeSink()
	rec := event.Recording{
		{Type: event.KeyDown, Key: event.Char("a")},
		{Delta: 5 * time.Second, Type: event.KeyUp, Key: event.Char("a")},
	}

	p := New(sink, testOptions())
	go func() {
		for {
			if active, _ := p.Playing(); active {
				p.Abort()
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	start := time.Now()
	res := p.Play(context.Background(), rec)

	assert.Equal(t, AbortedByRequest, res.Reason)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPauseExtendsWait(t *testing.T) {
	sink := newFakeSink()
	rec := event.Recording{
		{Type: event.KeyDown, Key: event.Char("a")},
		{Delta: 100 * time.Millisecond, Type: event.KeyUp, Key: event.Char("a")},
	}

	p := New(sink, testOptions())
	go func() {
		for {
			if active, _ := p.Playing(); active {
				break
			}
			time.Sleep(time.Millisecond)
		}
		time.Sleep(20 * time.Millisecond)
		p.TogglePause()
		time.Sleep(200 * time.Millisecond)
		p.TogglePause()
	}()

	start := time.Now()
	res := p.Play(context.Background(), rec)
	elapsed := time.Since(start)

	require.Equal(t, Completed, res.Reason)
	// 100ms of active wait plus ~200ms paused.
	assert.GreaterOrEqual(t, elapsed, 250*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestPlayingReportsIdleWhenDone(t *testing.T) {
	sink := newFakeSink()
	p := New(sink, testOptions())

	active, paused := p.Playing()
	assert.False(t, active)
	assert.False(t, paused)

	p.Play(context.Background(), event.Recording{{Type: event.KeyDown, Key: event.Char("a")}})

	active, _ = p.Playing()
	assert.False(t, active)
}
