package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/resilience"
)

// endpoint describes one provider operation: where it lives, how long a
// single attempt may take, and what a successful call costs.
type endpoint struct {
	name    string
	method  string
	path    string
	apiBase bool
	tier    cost.Tier
	credits int
	timeout time.Duration
}

// call performs one logical provider call with rate limiting, per-attempt
// timeout, classified retries and credit metering. A 401/403 halts the run
// scope carried by ctx so later calls in the same run fail fast.
func (c *httpClient) call(ctx context.Context, ep endpoint, path string, query url.Values, payload, out any) error {
	if scopeFrom(ctx).halted() {
		return errCredentialsRejected()
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return eris.Wrapf(err, "apollo: marshal %s request", ep.name)
		}
	}

	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("apollo", ep.name)
	}

	data, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
		return c.attempt(ctx, ep, path, query, body)
	})
	if err != nil {
		return err
	}

	c.ledger.Record(ep.tier, ep.credits)
	cost.FromContext(ctx).Record(ep.tier, ep.credits)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resilience.NewCallError(resilience.KindProvider, http.StatusOK,
			ep.name+": malformed response", eris.Wrap(err, "apollo: unmarshal response"))
	}
	return nil
}

func (c *httpClient) attempt(ctx context.Context, ep endpoint, path string, query url.Values, body []byte) ([]byte, error) {
	if scopeFrom(ctx).halted() {
		return nil, errCredentialsRejected()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "apollo: rate limit wait")
		}
	}

	actx, cancel := context.WithTimeout(ctx, ep.timeout)
	defer cancel()

	base := c.baseURL
	if ep.apiBase {
		base = c.apiBaseURL
	}
	reqURL := base + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(actx, ep.method, reqURL, rdr)
	if err != nil {
		return nil, eris.Wrapf(err, "apollo: create %s request", ep.name)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, resilience.NewCallError(resilience.KindNetwork, 0, ep.name, err)
	}
	data, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, resilience.NewCallError(resilience.KindNetwork, resp.StatusCode, ep.name+": read body", readErr)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	kind := resilience.ClassifyStatus(resp.StatusCode)
	if kind == resilience.KindConfig && scopeFrom(ctx).halt() {
		zap.L().Error("apollo: credentials rejected, halting provider calls",
			zap.String("endpoint", ep.name),
			zap.Int("status", resp.StatusCode),
		)
	}
	return nil, resilience.NewCallError(kind, resp.StatusCode, ep.name+": "+string(data), nil)
}

func errCredentialsRejected() error {
	return resilience.NewCallError(resilience.KindConfig, 0, "apollo: credentials rejected earlier in this run", nil)
}
