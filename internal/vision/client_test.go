package vision

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type recordedRequest struct {
	Model       string            `json:"model"`
	Messages    []recordedMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
}

func replyWith(content string) string {
	quoted, _ := json.Marshal(content)
	return `{"choices":[{"message":{"content":` + string(quoted) + `}}]}`
}

func TestCompleteSendsSystemAndUserMessages(t *testing.T) {
	t.Parallel()

	var got recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q, want Bearer test-key", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(replyWith("the reply")))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "test-key", "test-model")
	out, err := client.Complete(t.Context(), "be careful", "what next?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "the reply" {
		t.Errorf("reply = %q, want %q", out, "the reply")
	}

	if got.Model != "test-model" {
		t.Errorf("model = %q, want test-model", got.Model)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || string(got.Messages[0].Content) != `"be careful"` {
		t.Errorf("system message = %s %s", got.Messages[0].Role, got.Messages[0].Content)
	}
	if got.Messages[1].Role != "user" || string(got.Messages[1].Content) != `"what next?"` {
		t.Errorf("user message = %s %s", got.Messages[1].Role, got.Messages[1].Content)
	}
	if got.MaxTokens != completionMaxTokens {
		t.Errorf("max_tokens = %d, want %d", got.MaxTokens, completionMaxTokens)
	}
}

func TestCompleteOmitsEmptySystemMessage(t *testing.T) {
	t.Parallel()

	var got recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(replyWith("ok")))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "test-model")
	if _, err := client.Complete(t.Context(), "", "what next?"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if len(got.Messages) != 1 {
		t.Fatalf("messages = %d, want just the user message", len(got.Messages))
	}
	if got.Messages[0].Role != "user" {
		t.Errorf("role = %q, want user", got.Messages[0].Role)
	}
}

func TestAnalyzeImageEncodesDataURL(t *testing.T) {
	t.Parallel()

	image := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3}
	var got recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(replyWith("ACTIVITY: idle")))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "gpt-4o")
	out, err := client.AnalyzeImage(t.Context(), image, "describe the screen")
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	if out != "ACTIVITY: idle" {
		t.Errorf("reply = %q", out)
	}

	if len(got.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(got.Messages))
	}
	var parts []struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		ImageURL *struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}
	if err := json.Unmarshal(got.Messages[0].Content, &parts); err != nil {
		t.Fatalf("decode content parts: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("content parts = %d, want 2", len(parts))
	}
	if parts[0].Type != "text" || parts[0].Text != "describe the screen" {
		t.Errorf("text part = %+v", parts[0])
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL == nil {
		t.Fatalf("image part = %+v", parts[1])
	}
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(parts[1].ImageURL.URL, prefix) {
		t.Fatalf("image url = %.40q, want data URL", parts[1].ImageURL.URL)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(parts[1].ImageURL.URL, prefix))
	if err != nil {
		t.Fatalf("decode image payload: %v", err)
	}
	if string(decoded) != string(image) {
		t.Errorf("image payload does not round-trip")
	}
}

func TestCompleteNonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "m")
	_, err := client.Complete(t.Context(), "", "hello")
	if err == nil {
		t.Fatal("Complete succeeded, want error")
	}
	if !errors.Is(err, ErrAnalysisFailure) {
		t.Errorf("error = %v, want ErrAnalysisFailure", err)
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error = %q, want status in message", err)
	}
	if !strings.Contains(err.Error(), "backend exploded") {
		t.Errorf("error = %q, want body excerpt", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "m")
	_, err := client.Complete(t.Context(), "", "hello")
	if !errors.Is(err, ErrAnalysisFailure) {
		t.Fatalf("error = %v, want ErrAnalysisFailure", err)
	}
	if !strings.Contains(err.Error(), "no choices") {
		t.Errorf("error = %q", err)
	}
}

func TestCompleteTransportError(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}

	client := NewClient("http://"+addr, "key", "m")
	_, err = client.Complete(t.Context(), "", "hello")
	if !errors.Is(err, ErrAnalysisFailure) {
		t.Fatalf("error = %v, want ErrAnalysisFailure", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	t.Parallel()

	client := NewClient("", "", "")
	if got := client.Model(); got != DefaultModel {
		t.Errorf("Model() = %q, want %q", got, DefaultModel)
	}
}
