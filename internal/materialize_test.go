package internal

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	responses map[string]string
	errs      map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, sourceID string) (io.ReadCloser, error) {
	if err, ok := f.errs[sourceID]; ok {
		return nil, err
	}
	body, ok := f.responses[sourceID]
	if !ok {
		return nil, &FetchError{URL: sourceID, StatusCode: 404}
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func readAll(t *testing.T, fs billy.Filesystem, path string) string {
	t.Helper()
	data, err := util.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func exists(fs billy.Filesystem, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

func TestMaterializeWritesCanonicalFile(t *testing.T) {
	fs := memfs.New()
	fetcher := &fakeFetcher{responses: map[string]string{
		"http://example.org/edge.csv": "Pre,Post,Weight,Type\nB,A,3,chem\na,B,1,chem\n",
	}}
	m := NewMaterializer(fetcher, fs, "data")

	item := DatasetItem{
		Path:     "SEM Adult/Head/N2U edge list.csv",
		SourceID: "http://example.org/edge.csv",
	}
	require.NoError(t, m.Materialize(context.Background(), item))

	got := readAll(t, fs, "data/SEM Adult/Head/N2U edge list.csv")
	assert.Equal(t, "Source,Target,Weight,Type\nB,A,3,chem\na,B,1,chem\n", got)
}

func TestMaterializeOverwritesExisting(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "data/edge list.csv", "stale content that is longer than the replacement")

	fetcher := &fakeFetcher{responses: map[string]string{
		"src": "Pre,Post,Weight,Type\na,b,1,chem\n",
	}}
	m := NewMaterializer(fetcher, fs, "data")

	require.NoError(t, m.Materialize(context.Background(), DatasetItem{Path: "edge list.csv", SourceID: "src"}))

	assert.Equal(t, "Source,Target,Weight,Type\na,b,1,chem\n", readAll(t, fs, "data/edge list.csv"))
}

func TestMaterializeUnknownType(t *testing.T) {
	fs := memfs.New()
	m := NewMaterializer(&fakeFetcher{}, fs, "data")

	err := m.Materialize(context.Background(), DatasetItem{Path: "notes.csv", SourceID: "src"})

	var unknown *UnknownDatasetTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "src", unknown.Source)
	assert.False(t, exists(fs, "data/notes.csv"))
}

func TestMaterializeMalformedLeavesNoPartialFile(t *testing.T) {
	fs := memfs.New()
	// Second row has 7 fields instead of 8.
	fetcher := &fakeFetcher{responses: map[string]string{
		"src": "Pre\tPost\tPreIdx\tPostIdx\tSection\tLength\tPreObj\tPostObj\n" +
			"n1\tn2\t1\t2\ts10\t200\t5\t6\n" +
			"n1\tn2\t1\t2\ts10\t200\t5\n",
	}}
	m := NewMaterializer(fetcher, fs, "data")

	err := m.Materialize(context.Background(), DatasetItem{Path: "contact list.tsv", SourceID: "src"})

	var malformed *MalformedRowError
	require.ErrorAs(t, err, &malformed)
	assert.False(t, exists(fs, "data/contact list.tsv"))
}

func TestMaterializeAllSwallowsPerItemFailures(t *testing.T) {
	fs := memfs.New()
	fetcher := &fakeFetcher{
		responses: map[string]string{
			"good": "Pre,Post,Weight,Type\na,b,1,chem\n",
			"bad":  "Pre,Post,Weight,Type\na,b,heavy,chem\n",
		},
		errs: map[string]error{
			"gone": &FetchError{URL: "gone", StatusCode: 500},
		},
	}
	m := NewMaterializer(fetcher, fs, "data")

	items := []DatasetItem{
		{Path: "a/unclassifiable.csv", SourceID: "good"},
		{Path: "b/broken edge list.csv", SourceID: "bad"},
		{Path: "c/missing edge list.csv", SourceID: "gone"},
		{Path: "d/fine edge list.csv", SourceID: "good"},
	}

	runLog := NewRunLog()
	require.NoError(t, m.MaterializeAll(context.Background(), items, runLog, "run-1"))

	assert.False(t, exists(fs, "data/a/unclassifiable.csv"))
	assert.False(t, exists(fs, "data/b/broken edge list.csv"))
	assert.False(t, exists(fs, "data/c/missing edge list.csv"))
	assert.True(t, exists(fs, "data/d/fine edge list.csv"))

	record, ok := runLog.Get("d/fine edge list.csv")
	require.True(t, ok)
	assert.Equal(t, StatusMirrored, record.Status)
	assert.Equal(t, "run-1", record.RunID)

	for _, skipped := range []string{"a/unclassifiable.csv", "b/broken edge list.csv", "c/missing edge list.csv"} {
		record, ok := runLog.Get(skipped)
		require.True(t, ok, skipped)
		assert.Equal(t, StatusSkipped, record.Status, skipped)
		assert.NotEmpty(t, record.ErrorMessage, skipped)
	}
}

func TestMaterializeAllHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMaterializer(&fakeFetcher{}, memfs.New(), "data")
	err := m.MaterializeAll(ctx, []DatasetItem{{Path: "edge list.csv", SourceID: "src"}}, nil, "")

	assert.ErrorIs(t, err, context.Canceled)
}
