package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/tunecast/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunecast/internal/domain"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
)

func TestPlaylistService_Create(t *testing.T) {
	svc := NewPlaylistService(memory.NewPlaylistRepository(), newTestClock(), logger.NewTestLogger())

	playlist, err := svc.Create(context.Background(), "  Morning  ", "")
	require.NoError(t, err)
	assert.Equal(t, "Morning", playlist.Name)
	assert.Equal(t, domain.MediaMusic, playlist.Type)
	assert.Equal(t, testEpoch, playlist.CreatedAt)

	got, err := svc.Get(context.Background(), playlist.ID)
	require.NoError(t, err)
	assert.Equal(t, playlist.Name, got.Name)
}

func TestPlaylistService_Create_Validation(t *testing.T) {
	svc := NewPlaylistService(memory.NewPlaylistRepository(), newTestClock(), logger.NewTestLogger())

	_, err := svc.Create(context.Background(), " ", domain.MediaMusic)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = svc.Create(context.Background(), "Clips", "podcast")
	assert.ErrorAs(t, err, &validation)
}

func TestPlaylistService_List(t *testing.T) {
	svc := NewPlaylistService(memory.NewPlaylistRepository(), newTestClock(), logger.NewTestLogger())

	_, err := svc.Create(context.Background(), "First", domain.MediaMusic)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "Second", domain.MediaVideo)
	require.NoError(t, err)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "First", all[0].Name)
	assert.Equal(t, domain.MediaVideo, all[1].Type)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)
}
