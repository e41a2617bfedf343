package discovery

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sells-group/leadgen-cli/internal/config"
)

// Disqualification reason codes.
const (
	ReasonNoWebsite       = "no_website"
	ReasonDirectoryURL    = "directory_url"
	ReasonSoleProp        = "sole_prop"
	ReasonDuplicatePlace  = "duplicate_place"
	ReasonDuplicateDomain = "duplicate_domain"
	ReasonURLDead         = "url_dead"
)

// solePropPattern matches names like "John D." or "Jane Sm", likely sole proprietorships.
var solePropPattern = regexp.MustCompile(`^\w+ \w{1,2}\.?$`)

// qualifier rejects candidates that cannot seed contact discovery. It
// remembers place ids and domains so each company is kept once per run.
type qualifier struct {
	cfg       *config.DiscoveryConfig
	mu        sync.Mutex
	places    map[string]bool
	domains   map[string]bool
	reachable func(ctx context.Context, rawURL string) bool
}

func newQualifier(cfg *config.DiscoveryConfig) *qualifier {
	timeout := time.Duration(cfg.URLTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	q := &qualifier{
		cfg:     cfg,
		places:  make(map[string]bool),
		domains: make(map[string]bool),
	}
	if cfg.CheckReachable {
		q.reachable = func(ctx context.Context, rawURL string) bool {
			return isURLReachable(ctx, rawURL, timeout)
		}
	}
	return q
}

// Disqualify reports whether the candidate should be dropped and why.
func (q *qualifier) Disqualify(ctx context.Context, c *Candidate) (bool, string) {
	if strings.TrimSpace(c.Website) == "" || c.Domain == "" {
		return true, ReasonNoWebsite
	}
	if isDirectoryURL(c.Website, q.cfg.DirectoryBlocklist) {
		return true, ReasonDirectoryURL
	}
	if solePropPattern.MatchString(c.Name) {
		return true, ReasonSoleProp
	}

	q.mu.Lock()
	if c.PlaceID != "" && q.places[c.PlaceID] {
		q.mu.Unlock()
		return true, ReasonDuplicatePlace
	}
	if q.domains[c.Domain] {
		q.mu.Unlock()
		return true, ReasonDuplicateDomain
	}
	if c.PlaceID != "" {
		q.places[c.PlaceID] = true
	}
	q.domains[c.Domain] = true
	q.mu.Unlock()

	if q.reachable != nil && !q.reachable(ctx, c.Website) {
		return true, ReasonURLDead
	}
	return false, ""
}

// isDirectoryURL checks if a URL's hostname matches any entry in the blocklist.
func isDirectoryURL(website string, blocklist []string) bool {
	u, err := url.Parse(website)
	if err != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	for _, blocked := range blocklist {
		blocked = strings.ToLower(blocked)
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}

// isURLReachable performs an HTTP HEAD request to check if a URL is reachable.
func isURLReachable(ctx context.Context, rawURL string, timeout time.Duration) bool {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: timeout,
			}).DialContext,
			TLSHandshakeTimeout: timeout,
		},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; leadgen-cli/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close() //nolint:errcheck

	// Consider 2xx and 3xx as reachable.
	return resp.StatusCode < 400
}
