package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/videotheek/internal/config"
	"github.com/Shivanand-hulikatti/videotheek/internal/repository"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("VIDEOTHEEK_DATABASE_DRIVER", "memory")
	c, err := config.Load("")
	require.NoError(t, err)
	return c
}

func TestReadPassword_FromPipe(t *testing.T) {
	var out bytes.Buffer
	pw, err := readPassword(strings.NewReader("  s3cretpass \nignored\n"), &out, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "s3cretpass", pw)
	assert.Empty(t, out.String(), "no prompt without a terminal")

	pw, err = readPassword(strings.NewReader("no-newline"), &out, "Password: ")
	require.NoError(t, err)
	assert.Equal(t, "no-newline", pw)
}

func TestRandomSecret(t *testing.T) {
	a, err := randomSecret()
	require.NoError(t, err)
	b, err := randomSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestOpenStore_Memory(t *testing.T) {
	logger = zerolog.Nop()
	c := memoryConfig(t)

	store, closeStore, err := openStore(t.Context(), c.Database, true)
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &repository.MemoryStore{}, store)
}

func TestBuildRouter_GeneratesSecret(t *testing.T) {
	logger = zerolog.Nop()
	c := memoryConfig(t)
	require.Empty(t, c.Session.Secret)

	router, err := buildRouter(repository.NewMemoryStore(), c)
	require.NoError(t, err)
	assert.Empty(t, c.Session.Secret, "config is not mutated")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/videotheek", nil)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCommands_RequirePostgres(t *testing.T) {
	t.Setenv("VIDEOTHEEK_DATABASE_DRIVER", "memory")

	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"migrate", "up"}, want: "migrate requires the postgres driver"},
		{args: []string{"create-admin", "--username", "root"}, want: "create-admin requires the postgres driver"},
		{args: []string{"migrate", "sideways"}, want: "invalid argument"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs(tt.args)
			t.Cleanup(func() { rootCmd.SetArgs(nil) })

			err := rootCmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
