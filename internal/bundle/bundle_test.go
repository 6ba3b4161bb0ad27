package bundle

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mapview/internal/closurehash"
	"github.com/roach88/mapview/internal/testutil"
)

func peopleBundle() *Bundle {
	f := testutil.NewPeople()
	return Build(f.Container, f.Collection.Hierarchy, map[string]string{
		"Model.People":    "SELECT VALUE 1",
		"Model.Addresses": "SELECT VALUE 2",
	})
}

func TestBuild(t *testing.T) {
	f := testutil.NewPeople()
	views := map[string]string{
		"Model.People":    "SELECT VALUE 1",
		"Model.Addresses": "SELECT VALUE 2",
	}
	b := Build(f.Container, f.Collection.Hierarchy, views)

	assert.Equal(t, "Model", b.ConceptualContainer)
	assert.Equal(t, "Store", b.StoreContainer)
	assert.Equal(t, closurehash.Compute(f.Container, f.Collection.Hierarchy), b.ClosureDigest)
	assert.Equal(t, closurehash.ViewsDigest(views), b.ViewsDigest)
	assert.Equal(t, []View{
		{Set: "Model.Addresses", Text: "SELECT VALUE 2"},
		{Set: "Model.People", Text: "SELECT VALUE 1"},
	}, b.Views)
	assert.True(t, b.Targets(f.Container))

	f.Container.StoreContainer = "Other"
	assert.False(t, b.Targets(f.Container))
}

func TestViewMap(t *testing.T) {
	b := peopleBundle()
	m, err := b.ViewMap()
	require.NoError(t, err)
	assert.Equal(t, "SELECT VALUE 1", m["Model.People"])

	b.Views = append(b.Views, View{Set: "Model.People", Text: "again"})
	_, err = b.ViewMap()
	assert.ErrorContains(t, err, `"Model.People" twice`)
}

func TestEncodeDecode(t *testing.T) {
	b := peopleBundle()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, b))
	assert.Contains(t, buf.String(), `"closure_digest"`)

	got, err := Decode(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(b, got); diff != "" {
		t.Errorf("decoded bundle mismatch (-want +got):\n%s", diff)
	}

	_, err = Decode(bytes.NewBufferString("{"))
	assert.ErrorContains(t, err, "decode bundle")
}

func TestFileProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, Encode(f, peopleBundle()))
	require.NoError(t, f.Close())

	got, err := File(path).Load()
	require.NoError(t, err)
	assert.Len(t, got.Views, 2)

	_, err = File(filepath.Join(t.TempDir(), "missing.json")).Load()
	assert.ErrorContains(t, err, "open bundle")
}

func TestRegistry_LoadsEachProviderOnce(t *testing.T) {
	var calls atomic.Int32
	b := peopleBundle()
	r := NewRegistry(ProviderFunc(func() (*Bundle, error) {
		calls.Add(1)
		return b, nil
	}))
	r.Register(Static(b))
	assert.Equal(t, 2, r.Len())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Bundles()
			assert.NoError(t, err)
			assert.Len(t, got, 2)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestRegistry_Failures(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry(ProviderFunc(func() (*Bundle, error) { return nil, boom }))
	_, err := r.Bundles()
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "load bundle 0")

	r = NewRegistry(ProviderFunc(func() (*Bundle, error) { return nil, nil }))
	_, err = r.Bundles()
	assert.ErrorContains(t, err, "no bundle")
}

func TestRegistry_Nil(t *testing.T) {
	var r *Registry
	assert.Equal(t, 0, r.Len())
	got, err := r.Bundles()
	assert.NoError(t, err)
	assert.Empty(t, got)
}
