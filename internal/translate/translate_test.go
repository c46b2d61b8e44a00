package translate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/salmonumbrella/wikigap-cli/internal/annotation"
	"github.com/salmonumbrella/wikigap-cli/internal/jsonv"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGoogleClient_TranslateHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate_a/single" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("sl") != "en" || q.Get("tl") != "zh-TW" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("q") != "Early life & career" {
			t.Errorf("q = %q", q.Get("q"))
		}
		w.Write([]byte(`[[["早年","Early life",null,null,10],["與職業","& career",null,null,10]],null,"en"]`))
	}))
	defer srv.Close()

	c := NewGoogleClientWithURL(srv.URL, newTestLogger())
	got, err := c.TranslateHeader(context.Background(), "Early life & career", "en", "zh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "早年與職業" {
		t.Errorf("got %q, want %q", got, "早年與職業")
	}
}

func TestGoogleClient_RetriesOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[[["Histoire","History"]]]`))
	}))
	defer srv.Close()

	c := NewGoogleClientWithURL(srv.URL, newTestLogger())
	got, err := c.TranslateHeader(context.Background(), "History", "en", "fr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Histoire" {
		t.Errorf("got %q", got)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestGoogleClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status", http.StatusTooManyRequests, ``},
		{"not json", http.StatusOK, `<html>`},
		{"no segments", http.StatusOK, `[null]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewGoogleClientWithURL(srv.URL, newTestLogger())
			_, err := c.TranslateHeader(context.Background(), "x", "en", "fr")
			var terr *Error
			if !errors.As(err, &terr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if terr.Op != "header" {
				t.Errorf("Op = %q", terr.Op)
			}
		})
	}
}

func messageReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"id":            "msg_test",
		"type":          "message",
		"role":          "assistant",
		"model":         DefaultModel,
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"content":       []map[string]any{{"type": "text", "text": text}},
		"usage":         map[string]any{"input_tokens": 10, "output_tokens": 5},
	})
	return string(b)
}

func TestAnthropicClient_TranslateFact(t *testing.T) {
	t.Parallel()

	prompts := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) == 1 && len(req.Messages[0].Content) == 1 {
			prompts <- req.Messages[0].Content[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(messageReply(` "Il est né à Paris." `)))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "k", BaseURL: srv.URL, Model: "test-model"}, newTestLogger())
	got, err := c.TranslateFact(context.Background(), "He was born in Paris.", "en", "fr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Il est né à Paris." {
		t.Errorf("got %q", got)
	}
	want := "Translate the following content: 'He was born in Paris.' from English to French. Return only the translation."
	select {
	case prompt := <-prompts:
		if prompt != want {
			t.Errorf("prompt = %q, want %q", prompt, want)
		}
	default:
		t.Error("request carried no prompt")
	}
}

func TestAnthropicClient_Error(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "k", BaseURL: srv.URL}, newTestLogger())
	_, err := c.TranslateFact(context.Background(), "x", "en", "ru")
	var terr *Error
	if !errors.As(err, &terr) || terr.Op != "fact" {
		t.Fatalf("expected fact *Error, got %v", err)
	}
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		`"quoted"`:      "quoted",
		`plain`:         "plain",
		`"bad \q"`:      `"bad \q"`,
		`"`:             `"`,
		`"a" and "b"`:   `"a" and "b"`,
		`"line\nbreak"`: "line\nbreak",
	}
	for in, want := range tests {
		if got := unquote(in); got != want {
			t.Errorf("unquote(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLanguageNames(t *testing.T) {
	if HeaderCode("zh") != "zh-TW" || HeaderCode("fr") != "fr" || HeaderCode("de") != "de" {
		t.Errorf("unexpected header codes")
	}
	tests := map[string]string{
		"en": "English",
		"ru": "Russian",
		"zh": "Chinese",
		"de": "German",
		"??": "??",
	}
	for code, want := range tests {
		if got := LanguageName(code); got != want {
			t.Errorf("LanguageName(%q) = %q, want %q", code, got, want)
		}
	}
}

type fakeHeaders struct{ fail string }

func (f fakeHeaders) TranslateHeader(_ context.Context, text, _, tgt string) (string, error) {
	if text == f.fail {
		return "", errors.New("quota")
	}
	return tgt + ":" + text, nil
}

type fakeFacts struct{ err error }

func (f fakeFacts) TranslateFact(_ context.Context, text, _, tgt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return tgt + ":" + text, nil
}

func TestEnricher_Rows(t *testing.T) {
	rows := []annotation.Row{
		{
			annotation.FieldHeader1: jsonv.String("History"),
			annotation.FieldHeader2: jsonv.String("Broken"),
			annotation.FieldFact:    jsonv.String("fact one"),
		},
		{
			annotation.FieldHeader1: jsonv.String("None"),
			annotation.FieldFact:    jsonv.NaN(),
		},
	}
	e := &Enricher{Headers: fakeHeaders{fail: "Broken"}, Facts: fakeFacts{}, Logger: newTestLogger()}
	if err := e.Rows(context.Background(), rows, "en", "fr"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := rows[0].Get(annotation.FieldHeader1Translated).String(); got != "fr:History" {
		t.Errorf("header_1_translated = %q", got)
	}
	if !rows[0].Get(annotation.FieldHeader2Translated).IsNull() {
		t.Errorf("failed header should be null")
	}
	if got := rows[0].Get(annotation.FieldFactTranslated).String(); got != "fr:fact one" {
		t.Errorf("fact_translated = %q", got)
	}
	if got := rows[1].Get(annotation.FieldHeader1Translated).String(); got != "None" {
		t.Errorf("missing header should pass through, got %q", got)
	}
	if !rows[1].Get(annotation.FieldHeader2Translated).IsNull() {
		t.Errorf("absent header_2 should stay null")
	}
	if !rows[1].Get(annotation.FieldFactTranslated).IsNaN() {
		t.Errorf("missing fact should pass through")
	}
}

func TestEnricher_FactFailureMarker(t *testing.T) {
	rows := []annotation.Row{{annotation.FieldFact: jsonv.String("x")}}
	e := &Enricher{Headers: Noop{}, Facts: fakeFacts{err: &Error{Op: "fact", Err: errors.New("overloaded")}}, Logger: newTestLogger()}
	if err := e.Rows(context.Background(), rows, "en", "ru"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := rows[0].Get(annotation.FieldFactTranslated).String()
	if got != "Translation Error: translate fact: overloaded" {
		t.Errorf("got %q", got)
	}
}

func TestUnavailable_MarksEveryFact(t *testing.T) {
	rows := []annotation.Row{{annotation.FieldFact: jsonv.String("x")}}
	e := &Enricher{Headers: Noop{}, Facts: Unavailable{}, Logger: newTestLogger()}
	if err := e.Rows(context.Background(), rows, "fr", "en"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := rows[0].Get(annotation.FieldFactTranslated).String()
	if got != "Translation Error: translate fact: no LLM API key configured" {
		t.Errorf("got %q", got)
	}
}
