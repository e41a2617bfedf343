package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/apollo/mocks"
)

func TestRunBatch_KeepsOrderAndCountsFailures(t *testing.T) {
	client := mocks.NewMockClient(t)
	for _, domain := range []string{"alpha.com", "beta.com"} {
		id := domain + "-1"
		client.On("PeopleAPISearch", mock.Anything, byDomain(domain)).
			Return(freeSearch(apollo.Person{ID: id, Name: "Chief " + domain, Title: "CEO"})).Once()
		client.On("PeopleMatch", mock.Anything, id).
			Return(revealed(&apollo.Person{ID: id, Email: "ceo@" + domain})).Once()
	}

	companies := []model.CompanyRef{
		{Name: "Alpha", Website: "alpha.com"},
		{Website: "nameless.com"},
		{Name: "Beta", Website: "https://beta.com"},
	}

	report, err := NewOrchestrator(client, Config{}).RunBatch(context.Background(), companies, nil, 2)
	require.NoError(t, err)

	require.Len(t, report.Items, 3)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.CreditsSpent)

	assert.Equal(t, "Alpha", report.Items[0].Company.Name)
	require.NotNil(t, report.Items[0].Result)
	assert.Equal(t, "ceo@alpha.com", report.Items[0].Result.Contacts[0].Email)

	assert.Nil(t, report.Items[1].Result)
	assert.Contains(t, report.Items[1].Error, "name is required")

	require.NotNil(t, report.Items[2].Result)
	assert.Equal(t, "ceo@beta.com", report.Items[2].Result.Contacts[0].Email)
}

func TestRunBatch_ConfigErrorStopsBatch(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("PeopleAPISearch", mock.Anything, mock.Anything).Return(nil, errConfig()).Maybe()

	companies := []model.CompanyRef{
		{Name: "Alpha", Website: "alpha.com"},
		{Name: "Beta", Website: "beta.com"},
	}
	_, err := NewOrchestrator(client, Config{}).RunBatch(context.Background(), companies, nil, 1)
	require.Error(t, err)
	assert.True(t, resilience.IsConfigError(err))
}

func TestRunBatch_Empty(t *testing.T) {
	report, err := NewOrchestrator(mocks.NewMockClient(t), Config{}).RunBatch(context.Background(), nil, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, report.Items)
	assert.Zero(t, report.Succeeded)
}
