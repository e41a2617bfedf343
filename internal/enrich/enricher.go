package enrich

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

const (
	defaultWorkers  = 5
	defaultMaxStubs = 100
)

// EnricherConfig bounds enrichment fan-out.
type EnricherConfig struct {
	Workers  int
	MaxStubs int
}

// Outcome is the result of enriching a batch of stubs.
type Outcome struct {
	Contacts  []model.Contact
	Truncated bool
	Failed    int
}

// Enricher reveals emails for stubs with bounded concurrency.
type Enricher struct {
	client   apollo.Client
	workers  int
	maxStubs int
}

// NewEnricher creates an Enricher. Zero config values take the defaults.
func NewEnricher(client apollo.Client, cfg EnricherConfig) *Enricher {
	e := &Enricher{client: client, workers: cfg.Workers, maxStubs: cfg.MaxStubs}
	if e.workers <= 0 {
		e.workers = defaultWorkers
	}
	if e.maxStubs <= 0 {
		e.maxStubs = defaultMaxStubs
	}
	return e
}

// Enrich fetches person details for each stub. Stubs beyond the cap are
// dropped and reported through Truncated. A person that no longer exists is
// skipped; other per-stub failures are logged and counted. Only a
// configuration error stops the batch.
func (e *Enricher) Enrich(ctx context.Context, stubs []model.ContactStub, targetDomain string) (Outcome, error) {
	var out Outcome
	if len(stubs) > e.maxStubs {
		zap.L().Warn("enrich: stub list truncated",
			zap.Int("stubs", len(stubs)),
			zap.Int("max", e.maxStubs),
		)
		stubs = stubs[:e.maxStubs]
		out.Truncated = true
	}

	results := make([]*model.Contact, len(stubs))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, stub := range stubs {
		if stub.ProviderID == "" {
			c := model.ContactFromStub(stub)
			c.Verdict = ValidateContact(c, targetDomain)
			results[i] = &c
			continue
		}

		g.Go(func() error {
			p, err := e.fetch(gctx, stub.ProviderID)
			switch {
			case resilience.IsConfigError(err):
				return err
			case resilience.IsNotFound(err):
				zap.L().Debug("enrich: person not found", zap.String("provider_id", stub.ProviderID))
				return nil
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				zap.L().Warn("enrich: person lookup failed",
					zap.String("provider_id", stub.ProviderID),
					zap.String("name", stub.Name),
					zap.Error(err),
				)
				return nil
			}

			c := mergePerson(stub, p)
			c.Verdict = ValidateContact(c, targetDomain)
			results[i] = &c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Outcome{}, eris.Wrap(err, "enrich: enrich stubs")
	}

	for _, c := range results {
		if c != nil {
			out.Contacts = append(out.Contacts, *c)
		}
	}
	out.Failed = int(failed.Load())
	return out, nil
}

// fetch reveals a person through the match endpoint and falls back to the
// direct person lookup when the match call fails.
func (e *Enricher) fetch(ctx context.Context, id string) (*apollo.Person, error) {
	p, err := e.client.PeopleMatch(ctx, id)
	if err == nil && p != nil {
		return p, nil
	}
	if resilience.IsConfigError(err) || ctx.Err() != nil {
		return nil, err
	}
	zap.L().Debug("enrich: match failed, trying person lookup", zap.String("provider_id", id), zap.Error(err))
	return e.client.GetPerson(ctx, id)
}

// mergePerson overlays revealed person fields on the stub.
func mergePerson(stub model.ContactStub, p *apollo.Person) model.Contact {
	c := model.ContactFromStub(stub)
	if p.FirstName != "" {
		c.FirstName = p.FirstName
	}
	if p.LastName != "" {
		c.LastName = p.LastName
	}
	switch {
	case p.Name != "":
		c.Name = p.Name
	case c.Name == "":
		c.Name = model.FullName(c.FirstName, c.LastName)
	}
	if p.Title != "" {
		c.Title = p.Title
	}
	if p.LinkedInURL != "" {
		c.LinkedInURL = p.LinkedInURL
	}
	c.Email = p.Email
	c.Phone = p.Phone
	return c
}
