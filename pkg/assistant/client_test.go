package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ams29/newagent/pkg/domain"
)

func TestClientStreamReply(t *testing.T) {
	var gotRequest chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		flusher := w.(http.Flusher)
		for _, chunk := range []string{"Buy", " low,", " sell high."} {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
			flusher.Flush()
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	transcript := []domain.Message{
		{Role: domain.RoleUser, Content: "How do I price a listing?"},
	}

	stream, err := client.StreamReply(context.Background(), transcript, domain.PersonaRealEstate)
	if err != nil {
		t.Fatalf("opening stream: %v", err)
	}
	defer stream.Close()

	full, err := drain(t, stream)
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	if full != "Buy low, sell high." {
		t.Errorf("got %q", full)
	}

	if gotRequest.Chatbot != "real estate" {
		t.Errorf("chatbot field: got %q, want %q", gotRequest.Chatbot, "real estate")
	}
	if gotRequest.Expert != "Real Estate" {
		t.Errorf("expert field: got %q, want %q", gotRequest.Expert, "Real Estate")
	}
	if len(gotRequest.Messages) != 1 || gotRequest.Messages[0].Content != transcript[0].Content {
		t.Errorf("messages field: got %+v", gotRequest.Messages)
	}
}

func TestClientStreamReplyNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	stream, err := client.StreamReply(context.Background(), nil, domain.PersonaGeneral)
	if err == nil {
		stream.Close()
		t.Fatal("expected an error before any delta")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestNewClientEmptyURL(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Fatal("expected an error")
	}
}
