package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-checkout-service/internal/testutil"
)

func TestFindLowStock(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPGRepository(db)
	ctx := context.Background()

	a := testutil.InsertTenant(t, db, time.Now().Add(time.Hour))
	b := testutil.InsertTenant(t, db, time.Now().Add(time.Hour))
	own := testutil.InsertProduct(t, db, a.ID, "At threshold", "1.00", 5)
	testutil.InsertProduct(t, db, a.ID, "Plenty", "1.00", 50)
	testutil.InsertProduct(t, db, b.ID, "Oversold", "1.00", -2)

	low, err := repo.FindLowStock(ctx)
	require.NoError(t, err)
	names := []string{}
	for _, p := range low {
		names = append(names, p.Name)
		assert.True(t, p.IsLowStock())
	}
	assert.ElementsMatch(t, []string{"At threshold", "Oversold"}, names)

	mine, err := repo.FindByTenant(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := repo.FindByTenant(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.NotEqual(t, own.ID, theirs[0].ID, "products are tenant scoped")
}
