package wikilink

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/w/api.php" || q.Get("action") != "wbgetentities" {
			t.Errorf("unexpected request: %s", r.URL)
		}
		if q.Get("sites") != "enwiki" || q.Get("titles") != "Ada Lovelace" || q.Get("sitefilter") != "frwiki" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Write([]byte(`{"entities":{"Q7259":{"id":"Q7259","sitelinks":{"frwiki":{"site":"frwiki","title":"Ada Lovelace","url":"https://fr.wikipedia.org/wiki/Ada_Lovelace"}}}}}`))
	}))
	defer srv.Close()

	r := NewResolverWithURL(srv.URL, newTestLogger())
	got, err := r.Resolve(context.Background(), "Ada Lovelace", "en", "fr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://fr.wikipedia.org/wiki/Ada_Lovelace" {
		t.Errorf("got %q", got)
	}
}

func TestResolver_TitleWithoutURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"entities":{"Q1":{"id":"Q1","sitelinks":{"ruwiki":{"title":"Ада Лавлейс"}}}}}`))
	}))
	defer srv.Close()

	got, err := NewResolverWithURL(srv.URL, newTestLogger()).Resolve(context.Background(), "Ada Lovelace", "en", "ru")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://ru.wikipedia.org/wiki/%D0%90%D0%B4%D0%B0_%D0%9B%D0%B0%D0%B2%D0%BB%D0%B5%D0%B9%D1%81"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolver_NoLink(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"missing item": `{"entities":{"-1":{"site":"enwiki","title":"Nobody","missing":""}}}`,
		"no sitelink":  `{"entities":{"Q5":{"id":"Q5","sitelinks":{}}}}`,
		"empty reply":  `{}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := NewResolverWithURL(srv.URL, newTestLogger()).Resolve(context.Background(), "Nobody", "en", "zh")
			if !errors.Is(err, ErrNoLink) {
				t.Fatalf("expected ErrNoLink, got %v", err)
			}
		})
	}
}

func TestResolver_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":"param-missing","info":"titles"}}`))
	}))
	defer srv.Close()

	_, err := NewResolverWithURL(srv.URL, newTestLogger()).Resolve(context.Background(), "", "en", "fr")
	if err == nil || errors.Is(err, ErrNoLink) {
		t.Fatalf("expected API error, got %v", err)
	}
}
