package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/papercomputeco/chatter/pkg/chatstream"
	"github.com/papercomputeco/chatter/pkg/conversation"
	"github.com/papercomputeco/chatter/pkg/llm"
)

// FakeBackend is an httptest server speaking the chatter backend API with
// scripted data. Fields may be changed between requests.
type FakeBackend struct {
	Server *httptest.Server

	mu sync.Mutex

	// Reply is the event sequence written for every chat stream request.
	Reply []chatstream.Event

	// Hold makes the chat stream handler write Reply and then wait until
	// the client disconnects.
	Hold bool

	Conversations []conversation.Summary
	Histories     map[int64][]conversation.Message
	Settings      llm.Settings
	Presets       []llm.Preset

	Requests []chatstream.Request
	Updates  []llm.Settings
}

// NewFakeBackend starts a FakeBackend. Close it with Server.Close.
func NewFakeBackend() *FakeBackend {
	b := &FakeBackend{
		Histories: map[int64][]conversation.Message{},
		Settings:  llm.Settings{Provider: "openai", Model: "gpt-4o-mini", BaseURL: "https://api.openai.com/v1", APIKey: "sk-1****cdef"},
		Presets:   llm.Presets(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /api/chat/stream", b.handleStream)
	mux.HandleFunc("GET /api/conversations", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		items := b.Conversations
		if items == nil {
			items = []conversation.Summary{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"conversations": items})
	})
	mux.HandleFunc("GET /api/conversations/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		msgs, ok := b.Histories[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "conversation not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
	})
	mux.HandleFunc("GET /api/settings", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, b.Settings)
	})
	mux.HandleFunc("POST /api/settings", func(w http.ResponseWriter, r *http.Request) {
		var s llm.Settings
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		b.mu.Lock()
		b.Updates = append(b.Updates, s)
		b.Settings = s.Masked()
		b.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]string{"message": "settings updated"})
	})
	mux.HandleFunc("GET /api/providers", func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"providers": b.Presets})
	})

	b.Server = httptest.NewServer(mux)
	return b
}

// URL returns the server's base URL.
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// SetReply replaces the scripted chat stream reply.
func (b *FakeBackend) SetReply(events ...chatstream.Event) {
	b.mu.Lock()
	b.Reply = events
	b.mu.Unlock()
}

// ReceivedRequests returns a copy of the chat stream requests seen so far.
func (b *FakeBackend) ReceivedRequests() []chatstream.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]chatstream.Request(nil), b.Requests...)
}

// ReceivedUpdates returns a copy of the settings updates seen so far.
func (b *FakeBackend) ReceivedUpdates() []llm.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]llm.Settings(nil), b.Updates...)
}

func (b *FakeBackend) handleStream(w http.ResponseWriter, r *http.Request) {
	var req chatstream.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	b.mu.Lock()
	b.Requests = append(b.Requests, req)
	reply := append([]chatstream.Event(nil), b.Reply...)
	hold := b.Hold
	b.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	for _, ev := range reply {
		frame, err := chatstream.Frame(ev)
		if err != nil {
			return
		}
		if _, err := w.Write(frame); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if hold {
		<-r.Context().Done()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
