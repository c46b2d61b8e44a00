// Package wikilink resolves the article link of an entity in another
// language edition through Wikidata.
package wikilink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://www.wikidata.org"
	userAgent      = "wikigap/1.0 (https://github.com/salmonumbrella/wikigap-cli)"
)

// ErrNoLink is returned when the entity has no item or no article in the
// target language.
var ErrNoLink = errors.New("no sitelink")

// Resolver looks up sitelinks with the wbgetentities API.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewResolver creates a Resolver with the default Wikidata URL.
func NewResolver(logger *slog.Logger) *Resolver {
	return NewResolverWithURL(defaultBaseURL, logger)
}

// NewResolverWithURL creates a Resolver with a custom base URL (for testing).
func NewResolverWithURL(baseURL string, logger *slog.Logger) *Resolver {
	return &Resolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With("adapter", "wikidata"),
	}
}

type sitelink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type entity struct {
	ID        string              `json:"id"`
	Missing   *string             `json:"missing"`
	Sitelinks map[string]sitelink `json:"sitelinks"`
}

type apiResponse struct {
	Entities map[string]entity `json:"entities"`
	Error    *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Resolve returns the URL of the tgtLang article about the srcLang article
// titled name.
func (r *Resolver) Resolve(ctx context.Context, name, srcLang, tgtLang string) (string, error) {
	site := tgtLang + "wiki"
	q := url.Values{}
	q.Set("action", "wbgetentities")
	q.Set("sites", srcLang+"wiki")
	q.Set("titles", name)
	q.Set("props", "sitelinks/urls")
	q.Set("sitefilter", site)
	q.Set("format", "json")
	reqURL := r.baseURL + "/w/api.php?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("wikidata: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	r.log.DebugContext(ctx, "wikidata request", slog.String("name", name), slog.String("site", site))

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("wikidata: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikidata: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("wikidata: read body: %w", err)
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("wikidata: decode json: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("wikidata: %s: %s", out.Error.Code, out.Error.Info)
	}

	for id, e := range out.Entities {
		if e.Missing != nil || !strings.HasPrefix(id, "Q") {
			continue
		}
		link, ok := e.Sitelinks[site]
		if !ok {
			continue
		}
		if link.URL != "" {
			return link.URL, nil
		}
		return fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", tgtLang,
			url.PathEscape(strings.ReplaceAll(link.Title, " ", "_"))), nil
	}
	return "", fmt.Errorf("%w: %q in %s", ErrNoLink, name, site)
}
