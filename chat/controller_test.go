package chat_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/researchmind/mind"
	"github.com/researchmind/mind/chat"
	"github.com/researchmind/mind/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// playSource returns an EventSource that replays frames in order and then
// returns end. Close increments closed.
func playSource(frames []mind.RawEvent, end error, closed *atomic.Int32) *mock.EventSource {
	idx := 0
	return &mock.EventSource{
		NextFn: func() (mind.RawEvent, error) {
			if idx < len(frames) {
				f := frames[idx]
				idx++
				return f, nil
			}
			if end == nil {
				return mind.RawEvent{}, mind.ErrStreamClosed
			}
			return mind.RawEvent{}, end
		},
		CloseFn: func() error {
			closed.Add(1)
			return nil
		},
	}
}

// feedSource returns an EventSource fed through a channel. Next blocks
// until a frame arrives; Close ends the stream with ErrStreamClosed.
func feedSource(closed *atomic.Int32) (*mock.EventSource, chan<- mind.RawEvent) {
	ch := make(chan mind.RawEvent, 16)
	var once sync.Once
	src := &mock.EventSource{
		NextFn: func() (mind.RawEvent, error) {
			f, ok := <-ch
			if !ok {
				return mind.RawEvent{}, mind.ErrStreamClosed
			}
			return f, nil
		},
		CloseFn: func() error {
			closed.Add(1)
			once.Do(func() { close(ch) })
			return nil
		},
	}
	return src, ch
}

func singleOpener(src mind.EventSource) *mock.StreamOpener {
	return &mock.StreamOpener{
		OpenFn: func(ctx context.Context, url string) (mind.EventSource, error) {
			return src, nil
		},
	}
}

// stateRecorder captures every OnChange snapshot.
type stateRecorder struct {
	mu     sync.Mutex
	states []mind.StreamState
}

func (r *stateRecorder) record(s mind.StreamState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) snapshots() []mind.StreamState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mind.StreamState(nil), r.states...)
}

func waitTerminal(t *testing.T, c *chat.Controller) mind.StreamState {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State().Status.Terminal()
	}, time.Second, time.Millisecond)
	return c.State()
}

func frame(tag, data string) mind.RawEvent {
	return mind.RawEvent{Type: tag, Data: data}
}

func TestController_TokenStreamToResult(t *testing.T) {
	t.Parallel()

	var closed, completions atomic.Int32
	src := playSource([]mind.RawEvent{
		frame("start", `{"message_id":"m1"}`),
		frame("stream_token", `{"content":"Hel"}`),
		frame("stream_token", `{"content":"lo"}`),
		frame("result", `{"content":"Hello"}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src),
		chat.WithOnComplete(func(mind.StreamState) { completions.Add(1) }))
	c.Connect(context.Background(), "/api/streams/m1")

	state := waitTerminal(t, c)

	assert.Equal(t, "Hello", state.Stage1)
	assert.Equal(t, "Hello", state.Stage2)
	assert.Equal(t, mind.StreamCompleted, state.Status)
	assert.Equal(t, "m1", state.MessageID)
	assert.True(t, c.IsComplete())
	assert.False(t, c.IsStreaming())
	assert.False(t, c.HasError())

	assert.Equal(t, int32(1), closed.Load(), "transport closed exactly once")
	require.Eventually(t, func() bool { return completions.Load() == 1 }, time.Second, time.Millisecond)
}

func TestController_Stage1AppendRules(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	src := playSource([]mind.RawEvent{
		frame("start", `{}`),
		frame("init_text", `{"content":"A"}`),
		frame("stream_token", `{"content":"B"}`),
		frame("chunk", `{"content":"C"}`),
		frame("result", `{"content":"done"}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src))
	c.Connect(context.Background(), "/api/streams/s")

	state := waitTerminal(t, c)

	// Newline after init_text and chunk, none after stream_token.
	assert.Equal(t, "A\nBC\n", state.Stage1)
}

func TestController_SystemTraceLines(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	src := playSource([]mind.RawEvent{
		frame("start", `{}`),
		frame("system_init", `{"content":"booting"}`),
		frame("system_hook", `{}`),
		frame("result", `{"content":"done"}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src))
	c.Connect(context.Background(), "/api/streams/s")

	state := waitTerminal(t, c)

	assert.Equal(t, "[system_init] booting {\"content\":\"booting\"}\n[system_hook] {}\n", state.Stage1)
}

func TestController_ResultMetadata(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	src := playSource([]mind.RawEvent{
		frame("start", `{"message_id":"m9"}`),
		frame("result", `{
			"content": "answer",
			"duration_ms": 5400,
			"duration_api_ms": 4100,
			"total_cost_usd": 0.042,
			"session_id": "sess-1",
			"num_turns": 3,
			"usage": {"output_tokens": 210, "input_tokens": 1800, "cache_read_input_tokens": 900},
			"sources": [{"title": "Paper A", "url": "https://example.org/a"}]
		}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src))
	c.Connect(context.Background(), "/api/streams/m9")

	state := waitTerminal(t, c)

	require.NotNil(t, state.Metadata)
	md := state.Metadata
	assert.Equal(t, int64(5400), md.DurationMS)
	assert.Equal(t, int64(4100), md.DurationAPIMS)
	assert.InDelta(t, 0.042, md.CostUSD, 1e-9)
	assert.Equal(t, "sess-1", md.SessionID)
	assert.Equal(t, 3, md.NumTurns)
	assert.Equal(t, 210, md.OutputTokens)
	assert.Equal(t, 1800, md.InputTokens)
	assert.Equal(t, 900, md.CacheReadTokens)
	assert.Equal(t, []mind.Source{{Title: "Paper A", URL: "https://example.org/a"}}, md.Sources)
	assert.Nil(t, state.Progress)
}

func TestController_ResultFallbackField(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	src := playSource([]mind.RawEvent{
		frame("start", `{}`),
		frame("result", `{"result":"fallback answer"}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src))
	c.Connect(context.Background(), "/api/streams/s")

	state := waitTerminal(t, c)

	assert.Equal(t, "fallback answer", state.Stage2)
}

func TestController_LegacyComplete(t *testing.T) {
	t.Parallel()

	var closed, completions atomic.Int32
	src := playSource([]mind.RawEvent{
		frame("start", `{}`),
		frame("chunk", `{"content":"working"}`),
		frame("complete", `{
			"message_id": "m2",
			"content": "legacy answer",
			"token_count": 5,
			"duration_ms": 100,
			"metadata": {"token_count": 7, "duration_ms": 900, "cost_usd": 0.01, "session_id": "sess-2", "num_turns": 1}
		}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src),
		chat.WithOnComplete(func(mind.StreamState) { completions.Add(1) }))
	c.Connect(context.Background(), "/api/streams/m2")

	state := waitTerminal(t, c)

	assert.Equal(t, mind.StreamCompleted, state.Status)
	assert.Equal(t, "m2", state.MessageID)
	assert.Equal(t, "legacy answer", state.Stage2)
	require.NotNil(t, state.Metadata)
	// Nested metadata fields win over legacy top-level ones.
	assert.Equal(t, 7, state.Metadata.OutputTokens)
	assert.Equal(t, int64(900), state.Metadata.DurationMS)
	assert.Equal(t, "sess-2", state.Metadata.SessionID)
	assert.Equal(t, int32(1), closed.Load())
	require.Eventually(t, func() bool { return completions.Load() == 1 }, time.Second, time.Millisecond)
}

func TestController_LegacyCompleteNeverOverwritesAnswer(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	src := playSource([]mind.RawEvent{
		frame("start", `{}`),
		frame("assistant", `{"content":"draft answer"}`),
		frame("complete", `{"content":""}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src))
	c.Connect(context.Background(), "/api/streams/s")

	state := waitTerminal(t, c)

	assert.Equal(t, mind.StreamCompleted, state.Status)
	assert.Equal(t, "draft answer", state.Stage2)
}

func TestController_ErrorEvent(t *testing.T) {
	t.Parallel()

	var closed, completions atomic.Int32
	src := playSource([]mind.RawEvent{
		frame("start", `{"message_id":"m1"}`),
		frame("error", `{"error":"backend down"}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src),
		chat.WithOnComplete(func(mind.StreamState) { completions.Add(1) }))
	c.Connect(context.Background(), "/api/streams/m1")

	state := waitTerminal(t, c)

	assert.Equal(t, mind.StreamError, state.Status)
	assert.Equal(t, "backend down", state.Err)
	assert.True(t, c.HasError())
	assert.Equal(t, int32(1), closed.Load(), "transport closed exactly once")
	assert.Equal(t, int32(0), completions.Load(), "onComplete never fires on error")
}

func TestController_ErrorEventDefaultMessage(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	src := playSource([]mind.RawEvent{
		frame("start", `{}`),
		frame("error", `{}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src))
	c.Connect(context.Background(), "/api/streams/s")

	state := waitTerminal(t, c)

	assert.Equal(t, mind.StreamError, state.Status)
	assert.Equal(t, "stream error", state.Err)
}

func TestController_TransportFailure(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	src := playSource([]mind.RawEvent{
		frame("start", `{}`),
		frame("stream_token", `{"content":"par"}`),
	}, errors.New("connection reset"), &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src))
	c.Connect(context.Background(), "/api/streams/s")

	state := waitTerminal(t, c)

	assert.Equal(t, mind.StreamError, state.Status)
	assert.Equal(t, "Connection lost", state.Err)
	assert.Equal(t, "par", state.Stage1, "partial trace output survives")
	assert.Equal(t, int32(1), closed.Load())
}

func TestController_OpenFailure(t *testing.T) {
	t.Parallel()

	opener := &mock.StreamOpener{
		OpenFn: func(ctx context.Context, url string) (mind.EventSource, error) {
			return nil, errors.New("dial tcp: refused")
		},
	}

	c := chat.New(&mock.StreamURLResolver{}, opener)
	c.Connect(context.Background(), "/api/streams/s")

	state := waitTerminal(t, c)

	assert.Equal(t, mind.StreamError, state.Status)
	assert.Contains(t, state.Err, "dial tcp: refused")
}

func TestController_MalformedPayloadDropped(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	src := playSource([]mind.RawEvent{
		frame("start", `{}`),
		frame("stream_token", `{not json`),
		frame("stream_token", `{"content":"ok"}`),
		frame("result", `{"content":"done"}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src))
	c.Connect(context.Background(), "/api/streams/s")

	state := waitTerminal(t, c)

	assert.Equal(t, mind.StreamCompleted, state.Status)
	assert.Equal(t, "ok", state.Stage1, "malformed frame dropped, stream continues")
}

func TestController_Progress(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	rec := &stateRecorder{}
	src := playSource([]mind.RawEvent{
		frame("start", `{}`),
		frame("progress", `{"content":"{\"stage\":\"search\",\"message\":\"querying index\"}"}`),
		frame("progress", `{"content":"not valid json"}`),
		frame("result", `{"content":"done"}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src), chat.WithOnChange(rec.record))
	c.Connect(context.Background(), "/api/streams/s")

	state := waitTerminal(t, c)

	// Progress is cleared at terminal success.
	assert.Nil(t, state.Progress)

	// connecting, streaming, progress, completed. The malformed progress
	// descriptor produces no state change at all.
	require.Eventually(t, func() bool {
		return len(rec.snapshots()) == 4
	}, time.Second, time.Millisecond)
	states := rec.snapshots()
	assert.Equal(t, mind.StreamConnecting, states[0].Status)
	assert.Equal(t, mind.StreamStreaming, states[1].Status)
	require.NotNil(t, states[2].Progress)
	assert.Equal(t, mind.Progress{Stage: "search", Message: "querying index"}, *states[2].Progress)
	assert.Equal(t, mind.StreamCompleted, states[3].Status)
}

func TestController_HeartbeatNoStateChange(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	rec := &stateRecorder{}
	src := playSource([]mind.RawEvent{
		frame("start", `{}`),
		frame("heartbeat", `{}`),
		frame("heartbeat", `{}`),
		frame("result", `{"content":"done"}`),
	}, nil, &closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src), chat.WithOnChange(rec.record))
	c.Connect(context.Background(), "/api/streams/s")

	waitTerminal(t, c)

	// connecting, streaming, completed — heartbeats notify nothing.
	require.Eventually(t, func() bool {
		return len(rec.snapshots()) == 3
	}, time.Second, time.Millisecond)
	assert.Equal(t, mind.StreamCompleted, rec.snapshots()[2].Status)
}

func TestController_ConnectEmptyPathNoOp(t *testing.T) {
	t.Parallel()

	opened := false
	opener := &mock.StreamOpener{
		OpenFn: func(ctx context.Context, url string) (mind.EventSource, error) {
			opened = true
			return nil, errors.New("unexpected")
		},
	}

	c := chat.New(&mock.StreamURLResolver{}, opener)
	c.Connect(context.Background(), "")

	assert.False(t, opened)
	assert.Equal(t, mind.StreamIdle, c.State().Status)
}

func TestController_ConnectResolvesURL(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	var gotURL string
	src := playSource([]mind.RawEvent{frame("result", `{"content":"x"}`)}, nil, &closed)
	opener := &mock.StreamOpener{
		OpenFn: func(ctx context.Context, url string) (mind.EventSource, error) {
			gotURL = url
			return src, nil
		},
	}
	resolver := &mock.StreamURLResolver{
		ResolveStreamURLFn: func(path string) string { return "https://mind.example.com" + path },
	}

	c := chat.New(resolver, opener)
	c.Connect(context.Background(), "/api/streams/m1")

	waitTerminal(t, c)
	assert.Equal(t, "https://mind.example.com/api/streams/m1", gotURL)
}

func TestController_ConnectSupersedesPriorTransport(t *testing.T) {
	t.Parallel()

	var firstClosed, secondClosed atomic.Int32
	first, _ := feedSource(&firstClosed)
	second := playSource([]mind.RawEvent{
		frame("start", `{"message_id":"m2"}`),
		frame("result", `{"content":"second"}`),
	}, nil, &secondClosed)

	calls := 0
	opener := &mock.StreamOpener{
		OpenFn: func(ctx context.Context, url string) (mind.EventSource, error) {
			calls++
			if calls == 1 {
				return first, nil
			}
			return second, nil
		},
	}

	c := chat.New(&mock.StreamURLResolver{}, opener)
	c.Connect(context.Background(), "/api/streams/m1")
	c.Connect(context.Background(), "/api/streams/m2")

	state := waitTerminal(t, c)

	assert.Equal(t, "second", state.Stage2)
	assert.Equal(t, "m2", state.MessageID)
	assert.Equal(t, int32(1), firstClosed.Load(), "first transport torn down by second Connect")
	assert.Equal(t, int32(1), secondClosed.Load())
}

func TestController_ConnectResetsPriorRunState(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	calls := 0
	opener := &mock.StreamOpener{
		OpenFn: func(ctx context.Context, url string) (mind.EventSource, error) {
			calls++
			if calls == 1 {
				return playSource([]mind.RawEvent{
					frame("start", `{"message_id":"m1"}`),
					frame("stream_token", `{"content":"first trace"}`),
					frame("result", `{"content":"first","duration_ms":10}`),
				}, nil, &closed), nil
			}
			return playSource([]mind.RawEvent{
				frame("chunk", `{"content":"second trace"}`),
				frame("complete", `{"message_id":"m2","content":"second"}`),
			}, nil, &closed), nil
		},
	}

	c := chat.New(&mock.StreamURLResolver{}, opener)
	c.Connect(context.Background(), "/api/streams/m1")
	state := waitTerminal(t, c)
	require.Equal(t, "first", state.Stage2)
	require.NotNil(t, state.Metadata)

	c.Connect(context.Background(), "/api/streams/m2")
	state = waitTerminal(t, c)

	// Connect itself resets the buffers; the legacy stream has no start.
	assert.Equal(t, "second trace\n", state.Stage1)
	assert.Equal(t, "second", state.Stage2)
	assert.Equal(t, "m2", state.MessageID)
	require.NotNil(t, state.Metadata)
	assert.Equal(t, int64(0), state.Metadata.DurationMS)
}

func TestController_ResetMidStream(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	src, feed := feedSource(&closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src))
	c.Connect(context.Background(), "/api/streams/s")
	feed <- frame("start", `{"message_id":"m1"}`)
	feed <- frame("stream_token", `{"content":"partial"}`)

	require.Eventually(t, func() bool {
		return c.State().Stage1 == "partial"
	}, time.Second, time.Millisecond)

	c.Reset()

	state := c.State()
	assert.Equal(t, mind.StreamIdle, state.Status)
	assert.Empty(t, state.Stage1)
	assert.Empty(t, state.Stage2)
	assert.Empty(t, state.MessageID)
	assert.Nil(t, state.Metadata)
	assert.Equal(t, int32(1), closed.Load())

	// The orphaned reader must not resurrect state once it observes the
	// closed transport.
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, mind.StreamIdle, c.State().Status)
}

func TestController_DisconnectReleasesTransportOnly(t *testing.T) {
	t.Parallel()

	var closed atomic.Int32
	src, feed := feedSource(&closed)

	c := chat.New(&mock.StreamURLResolver{}, singleOpener(src))
	c.Connect(context.Background(), "/api/streams/s")
	feed <- frame("start", `{}`)
	feed <- frame("stream_token", `{"content":"kept"}`)

	require.Eventually(t, func() bool {
		return c.State().Stage1 == "kept"
	}, time.Second, time.Millisecond)

	c.Disconnect()
	c.Disconnect() // idempotent

	state := c.State()
	assert.Equal(t, "kept", state.Stage1, "disconnect keeps accumulated output")
	assert.Equal(t, int32(1), closed.Load())
}

func TestController_DisconnectWhenIdleNoOp(t *testing.T) {
	t.Parallel()

	c := chat.New(&mock.StreamURLResolver{}, &mock.StreamOpener{})

	assert.NotPanics(t, func() { c.Disconnect() })
	assert.Equal(t, mind.StreamIdle, c.State().Status)
}
