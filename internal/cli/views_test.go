package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapview/internal/mapping"
	"github.com/roach88/mapview/internal/viewcache"
)

type viewsResponse struct {
	Status string    `json:"status"`
	Data   []ViewRow `json:"data"`
	Error  *CLIError `json:"error"`
}

func viewsJSON(t *testing.T, args ...string) viewsResponse {
	t.Helper()
	out, _, err := execute(t, append([]string{"--format", "json", "views"}, args...)...)
	require.NoError(t, err)
	var resp viewsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func origins(rows []ViewRow) map[string]mapping.ViewOrigin {
	out := make(map[string]mapping.ViewOrigin, len(rows))
	for _, r := range rows {
		out[r.Set] = r.Origin
	}
	return out
}

func TestViewsAllSets(t *testing.T) {
	resp := viewsJSON(t, peopleMapping)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]mapping.ViewOrigin{
		"Model.People":          mapping.OriginSynthesized,
		"Model.Addresses":       mapping.OriginSynthesized,
		"Model.PersonAddresses": mapping.OriginForeignKey,
		"Model.Archive":         mapping.OriginUserDefined,
	}, origins(resp.Data))
	assert.Equal(t, "Model.People", resp.Data[0].Set, "sets are listed in declaration order")
}

func TestViewsText(t *testing.T) {
	out, _, err := execute(t, "views", "--set", "Archive", "--set", "PersonAddresses", peopleMapping)
	require.NoError(t, err)
	assert.Equal(t,
		"Model.Archive          user-defined  SELECT VALUE Model.Employee(T.Id, T.Name, T.Salary) FROM Store.ArchivedPeople AS T\n"+
			"Model.PersonAddresses  foreign-key   SELECT VALUE Model.PersonAddress(CreateRef(Model.People, ROW(T.PersonId)), CreateRef(Model.Addresses, ROW(T.Id))) FROM Model.Addresses AS T WHERE T.PersonId IS NOT NULL\n",
		out)
}

func TestViewsTypeView(t *testing.T) {
	resp := viewsJSON(t, "--set", "People", "--type", "Model.Employee", peopleMapping)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Model.People", resp.Data[0].Set)
	assert.Equal(t, "Model.Employee", resp.Data[0].Type)
	assert.Equal(t, mapping.OriginSynthesized, resp.Data[0].Origin)
	assert.Contains(t, resp.Data[0].Text, "ONLY Model.Employee")
}

func TestViewsTypeViewMissing(t *testing.T) {
	_, _, err := execute(t, "views", "--set", "People", "--type", "Model.Person", peopleMapping)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err), "abstract type has no exact view")
}

// failingWriter rejects every write.
type failingWriter struct{}

var errWriteFailed = errors.New("write failed")

func (failingWriter) Write([]byte) (int, error) { return 0, errWriteFailed }

func TestViewsTypeViewMissingReportsWriteFailure(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(failingWriter{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "json", "views", "--set", "People", "--type", "Model.Person", peopleMapping})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, errWriteFailed)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCommandErrorReportsWriteFailure(t *testing.T) {
	f := &OutputFormatter{Format: "json", Writer: failingWriter{}}

	err := outputCommandError(f, ErrCodeNotFound, "missing")
	assert.ErrorIs(t, err, errWriteFailed)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	err = outputMappingError(f, errors.New("boom"))
	assert.ErrorIs(t, err, errWriteFailed)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestViewsTypeNeedsOneSet(t *testing.T) {
	_, _, err := execute(t, "views", "--type", "Model.Employee", peopleMapping)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestViewsUnknownSet(t *testing.T) {
	out, _, err := execute(t, "views", "--set", "Nowhere", peopleMapping)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, string(viewcache.ErrCodeViewNotGenerated))
	assert.Contains(t, out, "Nowhere")
}

func TestViewsFromStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bundles.db")
	_, _, err := execute(t, "export", "--db", db, peopleMapping)
	require.NoError(t, err)

	resp := viewsJSON(t, "--db", db, peopleMapping)
	assert.Equal(t, map[string]mapping.ViewOrigin{
		"Model.People":          mapping.OriginPrecompiled,
		"Model.Addresses":       mapping.OriginPrecompiled,
		"Model.PersonAddresses": mapping.OriginForeignKey,
		"Model.Archive":         mapping.OriginUserDefined,
	}, origins(resp.Data))
}

func TestViewsStaleStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bundles.db")
	_, _, err := execute(t, "export", "--db", db, peopleMapping)
	require.NoError(t, err)

	edited := editedPeople(t, "value: C", "value: K")
	out, _, err := execute(t, "--format", "json", "views", "--db", db, "--set", "People", edited)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp viewsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(viewcache.ErrCodeStaleArtifact), resp.Error.Code)
}

func TestViewsMissingStore(t *testing.T) {
	_, _, err := execute(t, "views", "--db", filepath.Join(t.TempDir(), "none.db"), peopleMapping)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestViewsVerboseDumpsMetrics(t *testing.T) {
	_, stderr, err := execute(t, "--verbose", "views", "--set", "People", "--set", "Addresses", peopleMapping)
	require.NoError(t, err)
	assert.Contains(t, stderr, `mapview_view_requests_total{kind="set",outcome="computed"} 1`)
	assert.Contains(t, stderr, `mapview_view_requests_total{kind="set",outcome="hit"} 1`)
	assert.Contains(t, stderr, "container views synthesized")
}
