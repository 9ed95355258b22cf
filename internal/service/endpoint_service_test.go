package service

import (
	"context"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecast/internal/adapter/clock"
	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
)

func newTestEndpointService(t *testing.T) (*EndpointService, testStores, *clock.Manual) {
	t.Helper()
	stores := newTestStores()
	clk := newTestClock()
	svc := NewEndpointService(stores.endpoints, stores.playlists, testCatalog(), clk, logger.NewTestLogger())
	svc.SetRand(rand.New(rand.NewPCG(1, 2)))
	return svc, stores, clk
}

func TestEndpointService_Create(t *testing.T) {
	svc, stores, _ := newTestEndpointService(t)
	stores.addPlaylist(t, "pl-1", "Morning")

	endpoint, err := svc.Create(context.Background(), NewEndpoint{
		Name:       "  Lobby screen ",
		PlaylistID: "pl-1",
		Variant:    domain.VariantLarge,
		Visualizer: map[string]any{"mode": "wave-soft", "randomizeIntervalSeconds": "45"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Lobby screen", endpoint.Name)
	assert.Equal(t, domain.StatusPending, endpoint.Status)
	assert.Len(t, endpoint.Slug, 9)
	slug, err := strconv.Atoi(endpoint.Slug)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, slug, 100000000)
	assert.LessOrEqual(t, slug, 999999999)
	assert.NotEmpty(t, endpoint.ID)
	require.NotNil(t, endpoint.PlaylistID)
	assert.Equal(t, "pl-1", *endpoint.PlaylistID)
	assert.Nil(t, endpoint.LastSync)
	assert.Nil(t, endpoint.LatencyMs)
	assert.Equal(t, endpoint.CreatedAt, endpoint.UpdatedAt)
	assert.Equal(t, "wave-soft", endpoint.Visualizer.Mode)
	assert.Equal(t, 45, endpoint.Visualizer.RandomizeIntervalSeconds)

	stored, err := svc.GetBySlug(context.Background(), endpoint.Slug)
	require.NoError(t, err)
	assert.Equal(t, endpoint.ID, stored.ID)
}

func TestEndpointService_Create_Validation(t *testing.T) {
	svc, _, _ := newTestEndpointService(t)

	_, err := svc.Create(context.Background(), NewEndpoint{Name: "   "})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "Endpoint name is required.", validation.Message)

	_, err = svc.Create(context.Background(), NewEndpoint{Name: "Lobby", PlaylistID: "nope"})
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)
}

func TestEndpointService_Create_UniqueSlugs(t *testing.T) {
	svc, _, _ := newTestEndpointService(t)

	seen := make(map[string]bool)
	for range 50 {
		endpoint, err := svc.Create(context.Background(), NewEndpoint{Name: "Screen"})
		require.NoError(t, err)
		assert.False(t, seen[endpoint.Slug], "duplicate slug %s", endpoint.Slug)
		seen[endpoint.Slug] = true
	}

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 50)
}

func TestEndpointService_Update(t *testing.T) {
	svc, stores, clk := newTestEndpointService(t)
	stores.addPlaylist(t, "pl-1", "Morning")

	created, err := svc.Create(context.Background(), NewEndpoint{Name: "Lobby"})
	require.NoError(t, err)

	clk.Advance(time.Minute)
	status := domain.StatusOperational
	variant := domain.VariantSmall
	updated, err := svc.Update(context.Background(), created.ID, EndpointUpdate{
		Name:       strPtr(" Foyer "),
		PlaylistID: strPtr("pl-1"),
		Status:     &status,
		Variant:    &variant,
	})
	require.NoError(t, err)

	assert.Equal(t, "Foyer", updated.Name)
	assert.Equal(t, domain.StatusOperational, updated.Status)
	assert.Equal(t, domain.VariantSmall, updated.PlayerVariant)
	require.NotNil(t, updated.LastSync)
	assert.Equal(t, testEpoch.Add(time.Minute), *updated.LastSync)
	assert.Equal(t, testEpoch.Add(time.Minute), updated.UpdatedAt)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.Slug, updated.Slug)

	cleared, err := svc.Update(context.Background(), created.ID, EndpointUpdate{PlaylistID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.PlaylistID)
}

func TestEndpointService_Update_DegradedKeepsLastSync(t *testing.T) {
	svc, _, _ := newTestEndpointService(t)
	created, err := svc.Create(context.Background(), NewEndpoint{Name: "Lobby"})
	require.NoError(t, err)

	status := domain.StatusDegraded
	updated, err := svc.Update(context.Background(), created.ID, EndpointUpdate{Status: &status})
	require.NoError(t, err)
	assert.Nil(t, updated.LastSync)
}

func TestEndpointService_Update_Errors(t *testing.T) {
	svc, _, _ := newTestEndpointService(t)

	_, err := svc.Update(context.Background(), "missing", EndpointUpdate{})
	assert.ErrorIs(t, err, domain.ErrEndpointNotFound)

	created, err := svc.Create(context.Background(), NewEndpoint{Name: "Lobby"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, EndpointUpdate{Name: strPtr("")})
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)

	bogus := domain.EndpointStatus("paused")
	_, err = svc.Update(context.Background(), created.ID, EndpointUpdate{Status: &bogus})
	assert.ErrorAs(t, err, &validation)
}
