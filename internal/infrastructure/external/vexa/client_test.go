package vexa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veritas-team/meeting-pipeline/pkg/config"
)

func testClient(baseURL string) *Client {
	return NewClient(&config.VexaConfig{
		BaseURL:  baseURL,
		BotName:  "NoteTaker",
		Language: "en",
	})
}

func TestRequestBot(t *testing.T) {
	var got BotRequest
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/bots" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding bot request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := testClient(server.URL)
	if err := client.RequestBot(context.Background(), "user-key", "google_meet", "abc-defg-hij"); err != nil {
		t.Fatalf("RequestBot: %v", err)
	}

	if gotKey != "user-key" {
		t.Errorf("X-API-Key = %q", gotKey)
	}
	if got.Platform != "google_meet" || got.NativeMeetingID != "abc-defg-hij" {
		t.Errorf("bot request body = %+v", got)
	}
	if got.BotName != "NoteTaker" || got.Language != "en" {
		t.Errorf("bot identity = %+v", got)
	}
}

func TestRequestBotNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no bot capacity", http.StatusConflict)
	}))
	defer server.Close()

	if err := testClient(server.URL).RequestBot(context.Background(), "k", "google_meet", "abc"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestFetchTranscriptNotReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchTranscript(context.Background(), "k", "google_meet", "abc")
	if !errors.Is(err, ErrTranscriptNotReady) {
		t.Fatalf("err = %v, want ErrTranscriptNotReady", err)
	}
}

func TestFetchTranscriptSuccess(t *testing.T) {
	payload := `{
		"transcript": "Alice: hello",
		"meeting_id": "abc-defg-hij",
		"segments": [{"speaker": "Alice", "text": "hello", "start_time": 0, "end_time": 2}],
		"participants": [{"name": "Alice", "email": "alice@example.com", "speaking_time": 2}],
		"duration": 120,
		"word_count": 1
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcripts/google_meet/abc-defg-hij" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "user-key" {
			t.Errorf("missing api key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer server.Close()

	tr, err := testClient(server.URL).FetchTranscript(context.Background(), "user-key", "google_meet", "abc-defg-hij")
	if err != nil {
		t.Fatalf("FetchTranscript: %v", err)
	}
	if tr.Transcript != "Alice: hello" || tr.WordCount != 1 {
		t.Errorf("transcript = %+v", tr)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].Speaker != "Alice" {
		t.Errorf("segments = %+v", tr.Segments)
	}
	if len(tr.Participants) != 1 || tr.Participants[0].SpeakingTime != 2 {
		t.Errorf("participants = %+v", tr.Participants)
	}
	if len(tr.Raw) == 0 {
		t.Error("raw payload not kept")
	}
}

func TestFetchTranscriptRejectsEmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meeting_id": "abc"}`))
	}))
	defer server.Close()

	if _, err := testClient(server.URL).FetchTranscript(context.Background(), "k", "google_meet", "abc"); err == nil {
		t.Fatal("expected validation error for payload without transcript text")
	}
}

func TestFetchTranscriptServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchTranscript(context.Background(), "k", "google_meet", "abc")
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if errors.Is(err, ErrTranscriptNotReady) {
		t.Error("server errors must not be reported as not-ready")
	}
}
