package services_test

import (
	"context"
	"testing"

	"github.com/spottica/backend/internal/application/services"
	"github.com/spottica/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexer_ReindexesApprovedPlacesOnly(t *testing.T) {
	f := newFixture(t)
	author := f.user(t, "author", entities.RoleUser)
	admin := f.user(t, "admin", entities.RoleAdmin)

	listed := f.approved(t, author, admin, "Bar")
	pending := f.propose(t, author, "Cafe")

	// start from an empty index
	search := newFakeSearch()
	n, err := services.NewIndexerService(f.store.Places(), search).Reindex(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, search.has(listed.ID))
	assert.False(t, search.has(pending.ID))
}
