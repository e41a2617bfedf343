package enrich

import (
	"context"

	"github.com/sells-group/leadgen-cli/internal/cost"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
)

// revealed returns a person-detail stub that books one paid credit.
func revealed(p *apollo.Person) func(context.Context, string) (*apollo.Person, error) {
	return func(ctx context.Context, _ string) (*apollo.Person, error) {
		cost.FromContext(ctx).Record(cost.TierPaid, 1)
		return p, nil
	}
}

// freeSearch returns a search stub that books one free call.
func freeSearch(people ...apollo.Person) func(context.Context, apollo.PeopleQuery) ([]apollo.Person, error) {
	return func(ctx context.Context, _ apollo.PeopleQuery) ([]apollo.Person, error) {
		cost.FromContext(ctx).Record(cost.TierFree, 0)
		return people, nil
	}
}

// paidSearch returns a search stub that books one paid credit.
func paidSearch(people ...apollo.Person) func(context.Context, apollo.PeopleQuery) ([]apollo.Person, error) {
	return func(ctx context.Context, _ apollo.PeopleQuery) ([]apollo.Person, error) {
		cost.FromContext(ctx).Record(cost.TierPaid, 1)
		return people, nil
	}
}

func errConfig() error {
	return resilience.NewCallError(resilience.KindConfig, 401, "invalid api key", nil)
}

func errNotFound() error {
	return resilience.NewCallError(resilience.KindNotFound, 404, "", nil)
}

func errProvider() error {
	return resilience.NewCallError(resilience.KindProvider, 422, "unprocessable", nil)
}

func errNetwork() error {
	return resilience.NewCallError(resilience.KindNetwork, 0, "connection reset", nil)
}
