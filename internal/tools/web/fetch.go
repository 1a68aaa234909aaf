// Package web implements the web_search and web_fetch tools. web_fetch
// routes every request through netssrf's host validation and connects to
// the validated IP directly to defeat DNS rebinding (spec.md §4.5).
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/relaykit/agentcore/internal/models"
	"github.com/relaykit/agentcore/internal/netssrf"
)

const (
	maxRedirects = 5
	// maxRawBytes is a hard safety cap on the raw response body, well
	// above defaultMaxChars, so a malicious server can't force unbounded
	// memory use before content extraction and the maxChars truncation
	// below ever run.
	maxRawBytes = 10 << 20
	// defaultMaxChars is the cap applied to extracted content (spec.md
	// §4.5) unless the caller configures a different limit.
	defaultMaxChars = 20000
	fetchTruncFmt   = "... (truncated to %d characters)\n\n"
	fetchTimeout    = 20 * time.Second
)

// FetchTool implements web_fetch.
type FetchTool struct {
	resolver netssrf.Resolver
	maxChars int
}

// NewFetchTool constructs web_fetch using resolver for DNS lookups (pass
// nil to use net.DefaultResolver) and maxChars as the extracted-content
// truncation cap (pass 0 for the default of 20000).
func NewFetchTool(resolver netssrf.Resolver, maxChars int) *FetchTool {
	if resolver == nil {
		resolver = netssrf.DefaultResolver
	}
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &FetchTool{resolver: resolver, maxChars: maxChars}
}

func (t *FetchTool) Name() string { return "web_fetch" }
func (t *FetchTool) Description() string {
	return "Fetch a URL's contents. Blocks requests to private, loopback, link-local, and cloud metadata addresses."
}
func (t *FetchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"url": {"type": "string"}},
		"required": ["url"]
	}`)
}

func (t *FetchTool) Execute(ctx context.Context, _ string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return models.Error(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	body, contentType, err := t.fetch(ctx, p.URL, 0)
	if err != nil {
		if netssrf.IsBlocked(err) {
			return models.AccessDenied(err.Error()), nil
		}
		return models.Error(err.Error()), nil
	}
	content := extractContent(body, contentType)
	content = truncateChars(content, t.maxChars)
	return models.Success(content), nil
}

func (t *FetchTool) fetch(ctx context.Context, rawURL string, redirectCount int) ([]byte, string, error) {
	if redirectCount > maxRedirects {
		return nil, "", fmt.Errorf("too many redirects")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid url: %w", err)
	}

	addrs, err := netssrf.ValidateHost(ctx, t.resolver, parsed.Scheme, parsed.Hostname())
	if err != nil {
		return nil, "", err
	}

	transport := &http.Transport{
		DialContext: directDialer(parsed, addrs),
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   fetchTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", "agentcore-web-fetch/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		location := resp.Header.Get("Location")
		if location == "" {
			return nil, "", fmt.Errorf("redirect without Location header")
		}
		next, err := parsed.Parse(location)
		if err != nil {
			return nil, "", fmt.Errorf("invalid redirect location: %w", err)
		}
		return t.fetch(ctx, next.String(), redirectCount+1)
	}

	limited := io.LimitReader(resp.Body, maxRawBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxRawBytes {
		data = data[:maxRawBytes]
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// directDialer connects to one of the already-validated addrs instead of
// re-resolving the hostname, so a second DNS lookup racing with an
// attacker-controlled record can't rebind the connection to a private
// address after ValidateHost approved it. For https the TLS handshake
// still uses the original hostname for SNI/certificate validation.
func directDialer(target *url.URL, addrs []net.IPAddr) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		_, port, err := net.SplitHostPort(addr)
		if err != nil {
			port = "80"
			if target.Scheme == "https" {
				port = "443"
			}
		}
		var lastErr error
		for _, a := range addrs {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(a.IP.String(), port))
			if err == nil {
				return conn, nil
			}
			lastErr = err
		}
		return nil, lastErr
	}
}

var (
	tagRe         = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)>`)
	brRe          = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockCloseRe  = regexp.MustCompile(`(?i)</\s*(p|div|li|tr|h[1-6]|section|article|blockquote)\s*>`)
)

// looksLikeHTML detects HTML by its leading doctype/html tag when the
// server didn't send a usable Content-Type (spec.md §4.5).
func looksLikeHTML(body []byte) bool {
	lower := strings.ToLower(strings.TrimSpace(string(body)))
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}

// extractContent renders a fetched body as plain text for the model:
// JSON is pretty-printed; HTML has <script>/<style> blocks stripped,
// <br> converted to newlines and closing block tags to blank lines,
// remaining tags stripped, and entities decoded; everything else passes
// through as-is.
func extractContent(body []byte, contentType string) string {
	switch {
	case strings.Contains(contentType, "json"):
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			if pretty, err := json.MarshalIndent(v, "", "  "); err == nil {
				return string(pretty)
			}
		}
		return string(body)
	case strings.Contains(contentType, "html") || (contentType == "" && looksLikeHTML(body)):
		text := string(body)
		text = scriptStyleRe.ReplaceAllString(text, "")
		text = brRe.ReplaceAllString(text, "\n")
		text = blockCloseRe.ReplaceAllString(text, "\n\n")
		text = tagRe.ReplaceAllString(text, " ")
		text = decodeEntities(text)
		return normalizeWhitespace(text)
	default:
		return string(body)
	}
}

// normalizeWhitespace collapses horizontal whitespace on each line while
// preserving the paragraph breaks extractContent inserted for <br> and
// closing block tags, collapsing runs of blank lines into one.
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// truncateChars caps s at maxChars runes, prepending a truncation notice
// (spec.md §4.5) when it had to cut content.
func truncateChars(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return fmt.Sprintf(fetchTruncFmt, maxChars) + string(runes[:maxChars])
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}
