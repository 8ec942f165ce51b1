package generative

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base := []Option{
		WithSleeper(func(time.Duration) {}),
		WithRetryBackoff(time.Millisecond, 2*time.Millisecond),
	}
	return NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		ChatModel:  "chat-model",
		ImageModel: "image-model",
		SpeechModel: "speech-model",
		VideoModel:  "video-model",
	}, append(base, opts...)...)
}

func chatResponse(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func TestChatJSONSendsPromptAndAuth(t *testing.T) {
	var captured struct {
		Model          string `json:"model"`
		ResponseFormat map[string]string `json:"response_format"`
		Messages       []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, chatResponse(`{"ok":true}`))
	}))

	content, err := client.ChatJSON(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("ChatJSON: %v", err)
	}
	if content != `{"ok":true}` {
		t.Fatalf("content = %q", content)
	}
	if captured.Model != "chat-model" {
		t.Fatalf("model = %q", captured.Model)
	}
	if captured.ResponseFormat["type"] != "json_object" {
		t.Fatalf("response_format = %v", captured.ResponseFormat)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "user prompt" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
}

func TestChatJSONRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream overloaded", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, chatResponse(`{"ok":true}`))
	}))

	if _, err := client.ChatJSON(context.Background(), "system", "user"); err != nil {
		t.Fatalf("ChatJSON: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestChatJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))

	if _, err := client.ChatJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error for http 400")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}
}

func TestChatJSONExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "still broken", http.StatusServiceUnavailable)
	}), WithRetryMaxAttempts(3))

	_, err := client.ChatJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d", calls.Load())
	}
	if !strings.Contains(err.Error(), "failed after 3 attempts") {
		t.Fatalf("unexpected error: %v", err)
	}
	// The final status error stays reachable through the wrap.
	if !strings.Contains(err.Error(), "http 503") {
		t.Fatalf("wrapped error lost the cause: %v", err)
	}
}

func TestChatJSONRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
	if _, err := client.ChatJSON(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestGenerateImage(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Model string `json:"model"`
			Size  string `json:"size"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "image-model" || req.Size != "1024x1024" {
			t.Errorf("request = %+v", req)
		}
		fmt.Fprint(w, `{"data":[{"url":"https://cdn.example.com/frame.png"}]}`)
	}))

	image, err := client.GenerateImage(context.Background(), "a lighthouse at dusk", "1024x1024")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if image.URL != "https://cdn.example.com/frame.png" {
		t.Fatalf("url = %q", image.URL)
	}
}

func TestGenerateImageRequiresPrompt(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	}))
	if _, err := client.GenerateImage(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestSynthesizeSpeech(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"url":"https://cdn.example.com/line.mp3","duration_seconds":2.4}`)
	}))

	speech, err := client.SynthesizeSpeech(context.Background(), SpeechRequest{Text: "Hello there", Voice: "warm"})
	if err != nil {
		t.Fatalf("SynthesizeSpeech: %v", err)
	}
	if speech.URL == "" || speech.DurationSeconds != 2.4 {
		t.Fatalf("speech = %+v", speech)
	}
}

func TestSynthesizeVideoPollsUntilDone(t *testing.T) {
	var polls atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/video/synthesis":
			fmt.Fprint(w, `{"task_id":"task-1","status":"pending"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/video/tasks/task-1":
			if polls.Add(1) < 3 {
				fmt.Fprint(w, `{"task_id":"task-1","status":"running"}`)
				return
			}
			fmt.Fprint(w, `{"task_id":"task-1","status":"succeeded","video":{"url":"https://cdn.example.com/film.mp4","duration_seconds":60,"resolution":"1280x720"}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	video, err := client.SynthesizeVideo(context.Background(), VideoRequest{Prompt: "a short film", Duration: 60})
	if err != nil {
		t.Fatalf("SynthesizeVideo: %v", err)
	}
	if video.URL != "https://cdn.example.com/film.mp4" || video.DurationSeconds != 60 {
		t.Fatalf("video = %+v", video)
	}
	if polls.Load() != 3 {
		t.Fatalf("polls = %d", polls.Load())
	}
}

func TestSynthesizeVideoReportsFailedTask(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `{"task_id":"task-9","status":"pending"}`)
			return
		}
		fmt.Fprint(w, `{"task_id":"task-9","status":"failed"}`)
	}))

	_, err := client.SynthesizeVideo(context.Background(), VideoRequest{Prompt: "doomed"})
	if err == nil || !strings.Contains(err.Error(), "failed") {
		t.Fatalf("expected task failure, got %v", err)
	}
}

func TestDecodeModelJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	cases := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{name: "plain", content: `{"title":"A"}`, want: "A"},
		{name: "code fence", content: "```json\n{\"title\":\"B\"}\n```", want: "B"},
		{name: "surrounding prose", content: `Here you go: {"title":"C"} hope it helps`, want: "C"},
		{name: "empty", content: "  ", wantErr: true},
		{name: "not json", content: "no structure here", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got payload
			err := DecodeModelJSON(tc.content, &got)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected decode error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeModelJSON: %v", err)
			}
			if got.Title != tc.want {
				t.Fatalf("title = %q, want %q", got.Title, tc.want)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse(`{"ok":true}`))
	}))
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
