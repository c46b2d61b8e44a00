package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/itchyny/gojq"
)

const defaultGoogleBaseURL = "https://translate.googleapis.com"

// joinSegments concatenates the translated segments of a translate_a/single
// reply: [[["Bonjour ","Hello ",...],["monde","world",...]],...].
const joinSegments = `[.[0][]? | .[0] | select(type == "string")] | join("")`

var segmentsCode = mustCompile(joinSegments)

func mustCompile(src string) *gojq.Code {
	q, err := gojq.Parse(src)
	if err != nil {
		panic(err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		panic(err)
	}
	return code
}

// GoogleClient translates headers with the public Google Translate
// endpoint.
type GoogleClient struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewGoogleClient creates a GoogleClient with the default endpoint.
func NewGoogleClient(logger *slog.Logger) *GoogleClient {
	return NewGoogleClientWithURL(defaultGoogleBaseURL, logger)
}

// NewGoogleClientWithURL creates a GoogleClient with a custom base URL (for
// testing).
func NewGoogleClientWithURL(baseURL string, logger *slog.Logger) *GoogleClient {
	return &GoogleClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        logger.With("adapter", "google_translate"),
	}
}

// TranslateHeader implements HeaderTranslator.
func (c *GoogleClient) TranslateHeader(ctx context.Context, text, srcLang, tgtLang string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", HeaderCode(srcLang))
	q.Set("tl", HeaderCode(tgtLang))
	q.Set("dt", "t")
	q.Set("q", text)
	reqURL := c.baseURL + "/translate_a/single?" + q.Encode()

	c.log.DebugContext(ctx, "header translation request", slog.String("text", text), slog.String("tl", tgtLang))

	resp, err := c.doWithRetry(ctx, reqURL)
	if err != nil {
		return "", &Error{Op: "header", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Op: "header", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Op: "header", Err: fmt.Errorf("read body: %w", err)}
	}

	var reply any
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", &Error{Op: "header", Err: fmt.Errorf("decode json: %w", err)}
	}

	iter := segmentsCode.RunWithContext(ctx, reply)
	v, ok := iter.Next()
	if !ok {
		return "", &Error{Op: "header", Err: fmt.Errorf("empty reply")}
	}
	if err, isErr := v.(error); isErr {
		return "", &Error{Op: "header", Err: fmt.Errorf("unexpected reply: %w", err)}
	}
	out, _ := v.(string)
	if out == "" {
		return "", &Error{Op: "header", Err: fmt.Errorf("no translated text in reply")}
	}
	return out, nil
}

// doWithRetry executes the request with a single retry on 5xx or network
// errors.
func (c *GoogleClient) doWithRetry(ctx context.Context, reqURL string) (*http.Response, error) {
	do := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		return c.httpClient.Do(req)
	}

	resp, err := do()
	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry || ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	c.log.WarnContext(ctx, "header translation retry", slog.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}
	return do()
}
