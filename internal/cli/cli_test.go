package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/me-cbr/por-onde-andei/internal/app"
	"github.com/me-cbr/por-onde-andei/internal/geo"
	"github.com/me-cbr/por-onde-andei/internal/storage"
)

func testBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   "1.2.3",
		Commit:    "abc123",
		BuildTime: "2026-08-31T00:00:00Z",
	}
}

// runCLI executes the root command against a database under dir. Every
// call with the same dir sees the same data, which lets tests span
// several invocations the way a real user session does.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCommand(&out, testBuildInfo())
	full := append([]string{
		"--config", filepath.Join(dir, "config.toml"),
		"--db", filepath.Join(dir, "andei.db"),
	}, args...)
	cmd.SetArgs(full)
	err := cmd.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return withExit.ExitCode()
	}
	return ExitCodeGeneric
}

func TestVersionCommandOutputsBuildInfo(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	require.Contains(t, out, "version=1.2.3")
	require.Contains(t, out, "commit=abc123")
}

func TestVersionCommandOutputsJSON(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--json", "version")
	require.NoError(t, err)

	var payload BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, "1.2.3", payload.Version)
	require.Equal(t, "abc123", payload.Commit)
}

func TestRootHasTopLevelCommands(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCommand(&out, testBuildInfo())

	for _, name := range []string{"register", "login", "logout", "whoami", "profile", "biometric", "place", "activity", "geo", "db", "version"} {
		_, _, err := cmd.Find([]string{name})
		require.NoErrorf(t, err, "expected command %q", name)
	}
}

func TestRegisterLoginPlaceLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "register", "a@example.com", "--name", "Ana", "--password", "pw123456")
	require.NoError(t, err)
	require.Contains(t, out, "registered a@example.com")

	out, err = runCLI(t, dir, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Ana <a@example.com>")

	out, err = runCLI(t, dir, "place", "add", "Central Park", "--photo", "file:///p.jpg", "--lat", "-23.5505", "--lng", "-46.6333", "--json")
	require.NoError(t, err)
	var created placeView
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	require.Equal(t, "Central Park", created.Title)
	require.NotNil(t, created.Latitude)

	out, err = runCLI(t, dir, "place", "list")
	require.NoError(t, err)
	require.Contains(t, out, "Central Park")

	out, err = runCLI(t, dir, "place", "favorite", created.ID)
	require.NoError(t, err)
	require.Contains(t, out, "favorited")

	out, err = runCLI(t, dir, "place", "favorites")
	require.NoError(t, err)
	require.Contains(t, out, "Central Park")

	out, err = runCLI(t, dir, "place", "rm", created.ID)
	require.NoError(t, err)
	require.Contains(t, out, "deleted")

	out, err = runCLI(t, dir, "place", "list")
	require.NoError(t, err)
	require.Contains(t, out, "no places saved")

	_, err = runCLI(t, dir, "logout")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "not logged in")
}

func TestActivityRecordsAccountAndPlaceEvents(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "register", "a@example.com", "--name", "Ana", "--password", "pw123456")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "place", "add", "Beach", "--photo", "file:///b.jpg", "--json")
	require.NoError(t, err)
	var created placeView
	require.NoError(t, json.Unmarshal([]byte(out), &created))

	_, err = runCLI(t, dir, "place", "favorite", created.ID)
	require.NoError(t, err)

	out, err = runCLI(t, dir, "activity")
	require.NoError(t, err)
	require.Contains(t, out, "account.register")
	require.Contains(t, out, "place.save")
	require.Contains(t, out, "place.favorite")

	out, err = runCLI(t, dir, "activity", "--action", "place.save")
	require.NoError(t, err)
	require.Contains(t, out, "place.save")
	require.NotContains(t, out, "account.register")
}

func TestPlaceCommandsRequireLogin(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "place", "list")
	require.Error(t, err)
	require.Equal(t, ExitCodeAuthFailed, exitCode(err))
}

func TestLoginWrongPasswordMapsToAuthExitCode(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "register", "a@example.com", "--name", "Ana", "--password", "pw123456")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "login", "a@example.com", "--password", "wrong-password")
	require.Error(t, err)
	require.Equal(t, ExitCodeAuthFailed, exitCode(err))
}

func TestRegisterInvalidEmailMapsToUsageExitCode(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "register", "not-an-email", "--name", "Ana", "--password", "pw123456")
	require.Error(t, err)
	require.Equal(t, ExitCodeUsage, exitCode(err))
}

func TestGeoWithoutAPIKeyMapsToDependencyExitCode(t *testing.T) {
	t.Setenv("ANDEI_MAPS_API_KEY", "")

	_, err := runCLI(t, t.TempDir(), "geo", "geocode", "Avenida Paulista")
	require.Error(t, err)
	require.Equal(t, ExitCodeDependencyMissing, exitCode(err))
}

func TestDBClearRefusesWithoutConfirm(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "register", "a@example.com", "--name", "Ana", "--password", "pw123456")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "db", "clear")
	require.Error(t, err)
	require.Equal(t, ExitCodeUsage, exitCode(err))

	out, err := runCLI(t, dir, "db", "stats")
	require.NoError(t, err)
	require.Contains(t, out, "accounts: 1")
}

func TestDBClearWithConfirmEmptiesTables(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "register", "a@example.com", "--name", "Ana", "--password", "pw123456")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "db", "clear", "--confirm")
	require.NoError(t, err)
	require.Contains(t, out, "database cleared")

	out, err = runCLI(t, dir, "db", "stats")
	require.NoError(t, err)
	require.Contains(t, out, "accounts: 0")
	require.Contains(t, out, "places: 0")
	require.Contains(t, out, "sessions: 0")
}

func TestLoginPromptsWhenPasswordFlagOmitted(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "register", "a@example.com", "--name", "Ana", "--password", "pw123456")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "logout")
	require.NoError(t, err)

	restore := readPassword
	readPassword = func() ([]byte, error) { return []byte("pw123456"), nil }
	t.Cleanup(func() { readPassword = restore })

	out, err := runCLI(t, dir, "login", "a@example.com")
	require.NoError(t, err)
	require.Contains(t, out, "logged in as a@example.com")
}

func TestMapCommandErrorExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", fmt.Errorf("wrap: %w", app.ErrValidation), ExitCodeUsage},
		{"duplicate email", app.ErrDuplicateEmail, ExitCodeUsage},
		{"invalid credentials", app.ErrInvalidCredentials, ExitCodeAuthFailed},
		{"not logged in", app.ErrNotLoggedIn, ExitCodeAuthFailed},
		{"not found", fmt.Errorf("get place: %w", storage.ErrNotFound), ExitCodeNotFound},
		{"no geo results", geo.ErrNoResults, ExitCodeNotFound},
		{"geo unconfigured", geo.ErrNotConfigured, ExitCodeDependencyMissing},
		{"rebuild needed", storage.ErrRebuildNeeded, ExitCodeDependencyMissing},
		{"path error", &fs.PathError{Op: "open", Path: "/nope", Err: fs.ErrNotExist}, ExitCodeIO},
		{"generic", errors.New("boom"), ExitCodeGeneric},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mapped := mapCommandError(tc.err)
			require.Equal(t, tc.code, exitCode(mapped))
			require.ErrorIs(t, mapped, tc.err)
		})
	}
}

func TestMapCommandErrorKeepsExistingExitErrors(t *testing.T) {
	original := &ExitError{Code: ExitCodeNotFound, Err: errors.New("missing")}
	mapped := mapCommandError(fmt.Errorf("wrap: %w", original))
	require.Equal(t, ExitCodeNotFound, exitCode(mapped))
}
