package sse

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// mockResponseWriter implements http.ResponseWriter and http.Flusher for testing
type mockResponseWriter struct {
	buf     bytes.Buffer
	header  http.Header
	flushes int
	mu      sync.Mutex
}

func newMockResponseWriter() *mockResponseWriter {
	return &mockResponseWriter{header: make(http.Header)}
}

func (m *mockResponseWriter) Header() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.header
}

func (m *mockResponseWriter) Write(data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Write(data)
}

func (m *mockResponseWriter) WriteHeader(statusCode int) {}

func (m *mockResponseWriter) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushes++
}

func (m *mockResponseWriter) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.String()
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestHubRegisterUnregister tests client registration and unregistration
func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client1 := NewClient(newMockResponseWriter(), context.Background())
	client2 := NewClient(newMockResponseWriter(), context.Background())

	hub.Register(client1)
	hub.Register(client2)
	waitFor(t, "two clients", func() bool { return hub.ClientCount() == 2 })

	hub.Unregister(client1)
	waitFor(t, "one client", func() bool { return hub.ClientCount() == 1 })

	if err := client1.WriteEvent(Event{Type: TypeVolume}); err == nil {
		t.Error("unregistered client should be closed")
	}

	hub.Unregister(client2)
	waitFor(t, "no clients", func() bool { return hub.ClientCount() == 0 })
}

// TestHubBroadcast tests broadcasting events to multiple clients
func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	writers := []*mockResponseWriter{newMockResponseWriter(), newMockResponseWriter(), newMockResponseWriter()}
	for _, w := range writers {
		client := NewClient(w, context.Background())
		hub.Register(client)
		go client.Run()
	}
	waitFor(t, "registration", func() bool { return hub.ClientCount() == len(writers) })

	hub.Broadcast(Event{
		Type: TypeVolume,
		Data: map[string]any{"volume": 86},
		ID:   "1",
	})

	expected := "id: 1\nevent: volume-change\ndata: {\"volume\":86}\n\n"
	for i, w := range writers {
		waitFor(t, fmt.Sprintf("client %d event", i), func() bool {
			return strings.Contains(w.String(), expected)
		})
	}

	for i, w := range writers {
		if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
			t.Errorf("client %d Content-Type = %q", i, ct)
		}
	}
}

// TestHubBroadcastWithDisconnection tests broadcasting when some clients disconnect
func TestHubBroadcastWithDisconnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	writer1 := newMockResponseWriter()
	writer2 := newMockResponseWriter()

	client1 := NewClient(writer1, context.Background())
	client2 := NewClient(writer2, context.Background())
	hub.Register(client1)
	hub.Register(client2)
	go client1.Run()
	go client2.Run()
	waitFor(t, "registration", func() bool { return hub.ClientCount() == 2 })

	client1.Close()

	hub.Broadcast(Event{Type: TypeMute, Data: nil})

	expected := "event: mute-change\ndata: null\n\n"
	waitFor(t, "client 2 event", func() bool { return strings.Contains(writer2.String(), expected) })

	if strings.Contains(writer1.String(), expected) {
		t.Errorf("Client 1 should not have received event after disconnection")
	}
	waitFor(t, "closed client removal", func() bool { return hub.ClientCount() == 1 })
}

// TestHubConcurrentBroadcast checks that concurrent producers do not race.
func TestHubConcurrentBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				hub.Register(NewClient(newMockResponseWriter(), context.Background()))
			}
		}()
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				hub.Broadcast(Event{Type: TypeVolume, Data: fmt.Sprintf("data-%d-%d", id, j)})
			}
		}(i)
	}
	wg.Wait()

	// clients never run, so their queues fill up and they get dropped
	if n := hub.ClientCount(); n > 200 {
		t.Fatalf("client count %d exceeds registrations", n)
	}
}

// TestHubStop tests that Stop closes clients and unblocks producers
func TestHubStop(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(newMockResponseWriter(), context.Background())
	hub.Register(client)
	waitFor(t, "registration", func() bool { return hub.ClientCount() == 1 })

	hub.Stop()
	hub.Stop()

	waitFor(t, "clients closed", func() bool { return hub.ClientCount() == 0 })

	done := make(chan struct{})
	go func() {
		hub.Broadcast(Event{Type: TypeVolume})
		hub.Register(NewClient(newMockResponseWriter(), context.Background()))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked after Stop")
	}
}

// TestEventString tests the Event.String() method
func TestEventString(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected string
	}{
		{
			name:     "event with all fields",
			event:    Event{Type: "test", Data: map[string]string{"key": "value"}, ID: "123"},
			expected: "id: 123\nevent: test\ndata: {\"key\":\"value\"}\n\n",
		},
		{
			name:     "event without ID",
			event:    Event{Type: "test", Data: "simple data"},
			expected: "event: test\ndata: \"simple data\"\n\n",
		},
		{
			name:     "event without type",
			event:    Event{Data: "data only", ID: "456"},
			expected: "id: 456\ndata: \"data only\"\n\n",
		},
		{
			name:     "absent value",
			event:    Event{Type: TypeMute, Data: map[string]any{"muted": nil}},
			expected: "event: mute-change\ndata: {\"muted\":null}\n\n",
		},
		{
			name:     "unencodable data",
			event:    Event{Type: "bad", Data: make(chan int)},
			expected: "event: bad\ndata: error: json: unsupported type: chan int\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.event.String(); result != tt.expected {
				t.Errorf("Expected:\n%s\nGot:\n%s", tt.expected, result)
			}
		})
	}
}

// TestClientWriteEvent tests the Client.WriteEvent method
func TestClientWriteEvent(t *testing.T) {
	client := NewClient(newMockResponseWriter(), context.Background())
	event := Event{Type: "test", Data: "test data"}

	if err := client.WriteEvent(event); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	client.Close()
	if err := client.WriteEvent(event); err == nil {
		t.Error("Expected error when writing to closed client")
	}

	client2 := NewClient(newMockResponseWriter(), context.Background())
	for i := 0; i < 10; i++ {
		if err := client2.WriteEvent(event); err != nil {
			t.Fatalf("WriteEvent %d: %v", i, err)
		}
	}
	if err := client2.WriteEvent(event); err == nil {
		t.Error("Expected error when writing to full channel")
	}
}

// TestHubServeHTTP tests the HTTP handler lifecycle
func TestHubServeHTTP(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Accept", "text/event-stream")
	w := newMockResponseWriter()

	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(w, req)
		close(done)
	}()

	waitFor(t, "registration", func() bool { return hub.ClientCount() == 1 })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ServeHTTP did not return after the request ended")
	}
	waitFor(t, "unregistration", func() bool { return hub.ClientCount() == 0 })
}

// TestHubServeHTTPRejects tests method and Accept checks
func TestHubServeHTTPRejects(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	tests := []struct {
		name   string
		method string
		accept string
		status int
	}{
		{"wrong method", http.MethodPost, "text/event-stream", http.StatusMethodNotAllowed},
		{"wrong accept", http.MethodGet, "application/json", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/events", nil)
			req.Header.Set("Accept", tt.accept)
			rr := httptest.NewRecorder()

			hub.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rr.Code)
			}
		})
	}
}

// TestHubNumbersEvents checks that events without an ID get sequential IDs
func TestHubNumbersEvents(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	w := newMockResponseWriter()
	client := NewClient(w, context.Background())
	hub.Register(client)
	go client.Run()

	hub.Broadcast(Event{Type: TypeVolume, Data: 10})
	hub.Broadcast(Event{Type: TypeVolume, Data: 20, ID: "custom"})
	hub.Broadcast(Event{Type: TypeMute, Data: true})

	want := "id: 1\nevent: volume-change\ndata: 10\n\n" +
		"id: custom\nevent: volume-change\ndata: 20\n\n" +
		"id: 2\nevent: mute-change\ndata: true\n\n"
	waitFor(t, "three events", func() bool { return w.String() == want })
}

// TestHubReplaysLatestState checks that late subscribers get the current state
func TestHubReplaysLatestState(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	hub.Broadcast(Event{Type: TypeVolume, Data: map[string]any{"volume": 40}})
	hub.Broadcast(Event{Type: TypeMute, Data: map[string]any{"muted": false}})
	hub.Broadcast(Event{Type: TypeVolume, Data: map[string]any{"volume": 45}})

	w := newMockResponseWriter()
	client := NewClient(w, context.Background())
	hub.Register(client)
	go client.Run()

	want := "id: 3\nevent: volume-change\ndata: {\"volume\":45}\n\n" +
		"id: 2\nevent: mute-change\ndata: {\"muted\":false}\n\n"
	waitFor(t, "replayed state", func() bool { return w.String() == want })
}

// TestHubServeHTTPLastEventID checks that a resuming client skips events it saw
func TestHubServeHTTPLastEventID(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	hub.Broadcast(Event{Type: TypeVolume, Data: 40})
	hub.Broadcast(Event{Type: TypeMute, Data: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Last-Event-ID", "1")
	w := newMockResponseWriter()
	go hub.ServeHTTP(w, req)

	want := "id: 2\nevent: mute-change\ndata: true\n\n"
	waitFor(t, "mute replay", func() bool { return strings.Contains(w.String(), want) })
	if strings.Contains(w.String(), "volume-change") {
		t.Errorf("volume event replayed to a client that saw it: %q", w.String())
	}
}
