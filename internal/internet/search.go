// Package internet is the web search collaborator. Queries go to the
// DuckDuckGo HTML endpoint, results are summarised to three lines, and
// every answer is cached so repeated questions stay off the network.
package internet

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"umbrasol/internal/config"
	"umbrasol/internal/logging"
)

const maxResults = 3

// Searcher performs cached web searches.
type Searcher struct {
	endpoint   string
	httpClient *http.Client
	ttl        time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry

	// swapped in tests to control the clock
	now func() time.Time
}

type cacheEntry struct {
	summary string
	stored  time.Time
}

// NewSearcher builds a searcher from the internet configuration.
func NewSearcher(cfg *config.Config) *Searcher {
	return &Searcher{
		endpoint:   "https://html.duckduckgo.com/html/",
		httpClient: &http.Client{Timeout: cfg.InternetTimeout()},
		ttl:        cfg.CacheTTL(),
		cache:      make(map[string]cacheEntry),
		now:        time.Now,
	}
}

var (
	resultLink    = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]*>(.*?)</a>`)
	resultSnippet = regexp.MustCompile(`(?s)class="result__snippet"[^>]*>(.*?)</a>`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
)

// SwiftSearch answers a query from the cache when fresh, otherwise queries
// the search engine. Failures return an "ERROR:" string rather than an
// error value so the result can flow straight into synthesis.
func (s *Searcher) SwiftSearch(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "ERROR: empty search query"
	}

	s.mu.Lock()
	if e, ok := s.cache[query]; ok && s.now().Sub(e.stored) < s.ttl {
		s.mu.Unlock()
		logging.Debugf("internet: cache hit for %q", query)
		return e.summary
	}
	s.mu.Unlock()

	summary, err := s.search(ctx, query)
	if err != nil {
		logging.Warnf("internet: search failed: %v", err)
		return "ERROR: Offline. Cannot reach search engine."
	}
	if summary == "" {
		return "No relevant results found for this query."
	}

	s.mu.Lock()
	s.cache[query] = cacheEntry{summary: summary, stored: s.now()}
	s.mu.Unlock()
	return summary
}

func (s *Searcher) search(ctx context.Context, query string) (string, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search engine returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return summarize(string(body)), nil
}

// summarize pulls the first three title/snippet pairs out of the result
// page and renders them one per line.
func summarize(page string) string {
	titles := resultLink.FindAllStringSubmatch(page, maxResults)
	snippets := resultSnippet.FindAllStringSubmatch(page, maxResults)

	var lines []string
	for i, m := range titles {
		title := cleanFragment(m[1])
		if title == "" {
			continue
		}
		body := ""
		if i < len(snippets) {
			body = cleanFragment(snippets[i][1])
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", title, body))
	}
	return strings.Join(lines, "\n")
}

func cleanFragment(s string) string {
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
