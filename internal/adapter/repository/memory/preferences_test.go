package memory

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPreferencesRepository() *PreferencesRepository {
	return NewPreferencesRepository(test.NewApp().Preferences())
}

func TestPreferencesRepository_ServerURL(t *testing.T) {
	repo := newTestPreferencesRepository()

	url, err := repo.LoadServerURL()
	require.NoError(t, err)
	assert.Empty(t, url)

	require.NoError(t, repo.SaveServerURL(" http://localhost:8080/ "))
	url, err = repo.LoadServerURL()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", url)
}

func TestPreferencesRepository_Slug(t *testing.T) {
	repo := newTestPreferencesRepository()

	require.NoError(t, repo.SaveSlug("482913573"))
	slug, err := repo.LoadSlug()
	require.NoError(t, err)
	assert.Equal(t, "482913573", slug)
}

func TestPreferencesRepository_Clear(t *testing.T) {
	repo := newTestPreferencesRepository()
	require.NoError(t, repo.SaveServerURL("http://example.test"))
	require.NoError(t, repo.SaveSlug("123456789"))

	require.NoError(t, repo.Clear())

	url, _ := repo.LoadServerURL()
	slug, _ := repo.LoadSlug()
	assert.Empty(t, url)
	assert.Empty(t, slug)
}
