package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pavelanni/realexam/internal/model"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "vision",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func TestRecognize(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatResponse(`{"text": "(1) 求极限 (10分)"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/v1", "test-key", "vision")
	got, err := c.Recognize(context.Background(), model.PageImage{PageNr: 2, MIME: "image/jpeg", Data: []byte("img")})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if got != "(1) 求极限 (10分)" {
		t.Errorf("text = %q", got)
	}
	if !strings.Contains(body, "data:image/jpeg;base64,aW1n") {
		t.Error("request should carry the page image as a data URL")
	}
	if !strings.Contains(body, "This is page 2.") {
		t.Error("system prompt should name the page")
	}
}

func TestRecognizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad json", http.StatusOK, chatResponse("not json")},
		{"no choices", http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := New(srv.URL+"/v1", "k", "m")
			if _, err := c.Recognize(context.Background(), model.PageImage{PageNr: 1}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		`{"text":"a"}`:                 `{"text":"a"}`,
		"```json\n{\"text\":\"a\"}\n```": `{"text":"a"}`,
		"```\n{}\n```":                 `{}`,
	}
	for in, want := range tests {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDataURLDefaultsMIME(t *testing.T) {
	if got := dataURL(model.PageImage{Data: []byte("x")}); got != "data:image/png;base64,eA==" {
		t.Errorf("dataURL = %q", got)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"error":{"message":"bad key","type":"auth"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"object":"list","data":[{"id":"vision","object":"model"}]}`)
	}))
	defer srv.Close()

	if err := New(srv.URL+"/v1", "k", "vision").Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := New(srv.URL+"/v2", "k", "vision").Ping(context.Background()); err == nil {
		t.Error("expected ping error")
	}
}
