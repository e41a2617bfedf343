package discovery

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/google"
)

const (
	defaultMaxPages = 3
	defaultPageSize = 20
)

// PlacesSearch discovers companies with Google Places text search.
type PlacesSearch struct {
	google  google.Client
	limiter *rate.Limiter
	cfg     *config.DiscoveryConfig
	region  string
	calc    *cost.Calculator
}

// NewPlacesSearch creates a PlacesSearch. region is the Places region code
// bias and may be empty.
func NewPlacesSearch(g google.Client, cfg *config.DiscoveryConfig, region string, calc *cost.Calculator) *PlacesSearch {
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 10
	}
	if calc == nil {
		calc = cost.NewCalculator(cost.DefaultRates())
	}
	return &PlacesSearch{
		google:  g,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		cfg:     cfg,
		region:  region,
		calc:    calc,
	}
}

// TextQuery builds the Places query for an industry and location.
func TextQuery(industry, location string) string {
	return strings.TrimSpace(industry) + " in " + strings.TrimSpace(location)
}

// Run searches for q, paginating until the results, the page cap or q.Max
// run out. Credential failures abort; other failures keep what was found.
func (s *PlacesSearch) Run(ctx context.Context, q Query) (*Result, error) {
	if strings.TrimSpace(q.Industry) == "" {
		return nil, eris.New("discovery: industry is required")
	}
	if strings.TrimSpace(q.Location) == "" {
		return nil, eris.New("discovery: location is required")
	}

	text := TextQuery(q.Industry, q.Location)
	log := zap.L().With(zap.String("query", text))

	maxPages := s.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	pageSize := s.cfg.PageSize
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}

	qual := newQualifier(s.cfg)
	result := &Result{Candidates: []Candidate{}, Disqualified: map[string]int{}}
	pageToken := ""

pages:
	for page := 0; page < maxPages; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "discovery: rate limit wait")
		}

		resp, err := s.google.TextSearch(ctx, google.TextSearchRequest{
			TextQuery:  text,
			PageSize:   pageSize,
			PageToken:  pageToken,
			RegionCode: s.region,
		})
		result.APICalls++
		if err != nil {
			if resilience.IsConfigError(err) || ctx.Err() != nil {
				return nil, eris.Wrapf(err, "discovery: search %q", text)
			}
			log.Warn("places page failed, keeping partial results", zap.Int("page", page), zap.Error(err))
			break
		}

		for _, place := range resp.Places {
			c := fromPlace(place)
			if dq, reason := qual.Disqualify(ctx, &c); dq {
				result.Disqualified[reason]++
				metrics.DiscoveryCandidatesTotal.WithLabelValues(reason).Inc()
				log.Debug("candidate disqualified", zap.String("name", c.Name), zap.String("reason", reason))
				continue
			}
			result.Candidates = append(result.Candidates, c)
			metrics.DiscoveryCandidatesTotal.WithLabelValues("qualified").Inc()
			if q.Max > 0 && len(result.Candidates) >= q.Max {
				break pages
			}
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	result.CostUSD = s.calc.TextSearch(result.APICalls)

	log.Info("places discovery complete",
		zap.Int("candidates", len(result.Candidates)),
		zap.Int("api_calls", result.APICalls),
		zap.Float64("cost_usd", result.CostUSD),
	)
	return result, nil
}

func fromPlace(p google.Place) Candidate {
	city, state, zip := parseAddress(p.FormattedAddress)
	return Candidate{
		PlaceID: p.ID,
		Name:    strings.TrimSpace(p.DisplayName.Text),
		Website: p.WebsiteURI,
		Domain:  model.NormalizeDomain(p.WebsiteURI),
		Address: p.FormattedAddress,
		City:    city,
		State:   state,
		ZipCode: zip,
		Phone:   p.Phone,
		Rating:  p.Rating,
		Reviews: p.UserRatingCount,
		Source:  SourcePlaces,
	}
}

// parseAddress performs a best-effort extraction of city, state and postal
// code from a formatted address such as "123 Main St, Springfield, IL 62701, USA"
// or "12 FC Road, Pune, Maharashtra 411004, India".
func parseAddress(addr string) (city, state, zip string) {
	parts := splitAddress(addr)
	if len(parts) < 2 {
		return "", "", ""
	}

	for i := len(parts) - 1; i >= 0; i-- {
		if s, z := parseStateZip(parts[i]); s != "" {
			if i > 0 {
				city = parts[i-1]
			}
			return city, s, z
		}
	}

	// Fallback: the segment before the last is usually the city.
	return parts[len(parts)-2], "", ""
}

func splitAddress(addr string) []string {
	var parts []string
	for _, p := range strings.Split(addr, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// parseStateZip recognizes "IL 62701", "IL" and "Maharashtra 411004".
// A bare multi-word segment without a postal code is not a state.
func parseStateZip(s string) (state, zip string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ""
	}
	last := fields[len(fields)-1]
	if len(fields) >= 2 && isPostalCode(last) {
		return strings.Join(fields[:len(fields)-1], " "), last
	}
	if len(fields) == 1 && isStateCode(fields[0]) {
		return fields[0], ""
	}
	return "", ""
}

func isStateCode(s string) bool {
	return len(s) == 2 && s[0] >= 'A' && s[0] <= 'Z' && s[1] >= 'A' && s[1] <= 'Z'
}

func isPostalCode(s string) bool {
	if len(s) < 5 || len(s) > 10 {
		return false
	}
	for _, c := range s {
		if c != '-' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
