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

// BatchItem is the outcome for one company of a batch.
type BatchItem struct {
	Company model.CompanyRef        `json:"company"`
	Result  *model.EnrichmentResult `json:"result,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// BatchReport summarizes a batch run. Items keep input order.
type BatchReport struct {
	Items        []BatchItem `json:"items"`
	Succeeded    int         `json:"succeeded"`
	Failed       int         `json:"failed"`
	CreditsSpent int         `json:"credits_spent"`
}

// RunBatch enriches companies with at most concurrency runs in flight. A
// company that fails is recorded and the batch continues; a configuration
// error stops the whole batch.
func (o *Orchestrator) RunBatch(ctx context.Context, companies []model.CompanyRef, designation model.DesignationFilter, concurrency int) (*BatchReport, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	report := &BatchReport{Items: make([]BatchItem, len(companies))}
	if len(companies) == 0 {
		return report, nil
	}

	zap.L().Info("processing batch",
		zap.Int("companies", len(companies)),
		zap.Int("concurrency", concurrency),
	)

	// One credential rejection halts every company in the batch.
	g, gctx := errgroup.WithContext(apollo.WithRunScope(ctx))
	g.SetLimit(concurrency)

	var succeeded, failed, credits atomic.Int64

	for i, company := range companies {
		report.Items[i].Company = company
		g.Go(func() error {
			log := zap.L().With(zap.String("company", company.Name))

			result, err := o.DiscoverAndEnrich(gctx, company, designation)
			if err != nil {
				if resilience.IsConfigError(err) {
					return err
				}
				failed.Add(1)
				report.Items[i].Error = err.Error()
				log.Error("enrichment failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			credits.Add(int64(result.CreditsSpent))
			report.Items[i].Result = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	report.Succeeded = int(succeeded.Load())
	report.Failed = int(failed.Load())
	report.CreditsSpent = int(credits.Load())

	zap.L().Info("batch complete",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("credits", report.CreditsSpent),
	)
	return report, nil
}
