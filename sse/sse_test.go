package sse_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/researchmind/mind"
	"github.com/researchmind/mind/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseResponse is a helper to build SSE responses for tests.
type sseResponse struct {
	events []sseEvent
	raw    string
}

type sseEvent struct {
	event string
	data  string
}

func (s sseResponse) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		if s.raw != "" {
			_, _ = io.WriteString(w, s.raw)
			if flusher != nil {
				flusher.Flush()
			}
			return
		}
		for _, evt := range s.events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.event, evt.data)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func openSource(t *testing.T, resp sseResponse, opts ...sse.Option) mind.EventSource {
	t.Helper()
	srv := httptest.NewServer(resp.handler())
	t.Cleanup(srv.Close)
	client := sse.New(opts...)
	src, err := client.Open(context.Background(), srv.URL+"/api/streams/s1")
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func collectFrames(t *testing.T, src mind.EventSource) []mind.RawEvent {
	t.Helper()
	var frames []mind.RawEvent
	for {
		evt, err := src.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		frames = append(frames, evt)
	}
	return frames
}

func TestOpen_FrameAssembly(t *testing.T) {
	t.Parallel()

	src := openSource(t, sseResponse{events: []sseEvent{
		{"start", `{"message_id":"m1"}`},
		{"stream_token", `{"content":"Hel"}`},
		{"heartbeat", `{}`},
	}})

	frames := collectFrames(t, src)

	require.Len(t, frames, 3)
	assert.Equal(t, mind.RawEvent{Type: "start", Data: `{"message_id":"m1"}`}, frames[0])
	assert.Equal(t, mind.RawEvent{Type: "stream_token", Data: `{"content":"Hel"}`}, frames[1])
	assert.Equal(t, mind.RawEvent{Type: "heartbeat", Data: `{}`}, frames[2])
}

func TestOpen_MultiLineDataAndComments(t *testing.T) {
	t.Parallel()

	raw := ": keepalive comment\n" +
		"event: init_text\n" +
		"data: line one\n" +
		"data: line two\n" +
		"\n" +
		"data: bare message\n" +
		"\n"
	src := openSource(t, sseResponse{raw: raw})

	frames := collectFrames(t, src)

	require.Len(t, frames, 2)
	assert.Equal(t, mind.RawEvent{Type: "init_text", Data: "line one\nline two"}, frames[0])
	// No event field defaults to "message" per the SSE spec.
	assert.Equal(t, mind.RawEvent{Type: "message", Data: "bare message"}, frames[1])
}

func TestOpen_EmptyEventsSkipped(t *testing.T) {
	t.Parallel()

	raw := "event: heartbeat\n\n" + // no data, dropped
		"event: chunk\ndata: {\"content\":\"x\"}\n\n"
	src := openSource(t, sseResponse{raw: raw})

	frames := collectFrames(t, src)

	require.Len(t, frames, 1)
	assert.Equal(t, "chunk", frames[0].Type)
}

func TestOpen_RequestHeaders(t *testing.T) {
	t.Parallel()

	var gotAccept, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := sse.New(sse.WithHeader("Authorization", "Bearer tok-1"))
	src, err := client.Open(context.Background(), srv.URL)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, "text/event-stream", gotAccept)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestOpen_HTTPErrorEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"forbidden","message":"no access to stream"}}`))
	}))
	defer srv.Close()

	client := sse.New()
	_, err := client.Open(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
	assert.Contains(t, err.Error(), "no access to stream")
}

func TestOpen_HTTPErrorRawBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	client := sse.New()
	_, err := client.Open(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestEventSource_NextAfterClose(t *testing.T) {
	t.Parallel()

	src := openSource(t, sseResponse{events: []sseEvent{
		{"stream_token", `{"content":"x"}`},
	}})

	require.NoError(t, src.Close())
	require.NoError(t, src.Close()) // idempotent

	_, err := src.Next()
	assert.ErrorIs(t, err, mind.ErrStreamClosed)
}
