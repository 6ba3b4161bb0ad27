package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mapview/internal/closurehash"
	"github.com/roach88/mapview/internal/testutil"
)

// peopleMapping is the people fixture as a mapping document.
var peopleMapping = filepath.Join("..", "loader", "testdata", "people.yaml")

// execute runs the root command with args and returns what it wrote to
// stdout and stderr.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeMapping writes a mapping document into a fresh directory.
func writeMapping(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// editedPeople writes the people fixture with from replaced by to.
func editedPeople(t *testing.T, from, to string) string {
	t.Helper()
	data, err := os.ReadFile(peopleMapping)
	require.NoError(t, err)
	edited := strings.Replace(string(data), from, to, 1)
	require.NotEqual(t, string(data), edited, "fixture does not contain %q", from)
	return writeMapping(t, "people.yaml", edited)
}

// peopleDigest is the closure digest of the people fixture.
func peopleDigest() closurehash.Digest {
	f := testutil.NewPeople()
	return closurehash.Compute(f.Container, f.Collection.Hierarchy)
}
