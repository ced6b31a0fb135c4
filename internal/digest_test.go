package internal

import (
	"path"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(path.Dir(name), 0755))
	require.NoError(t, util.WriteFile(fs, name, []byte(content), 0644))
}

func populateMirror(t *testing.T, fs billy.Filesystem) {
	writeFile(t, fs, "data/SEM Adult/Head/edge list.csv", "Source,Target,Weight,Type\na,b,1,chem\n")
	writeFile(t, fs, "data/SEM Adult/Head/synapse list.csv", "Pre,Post,Sections,ID,Series\n")
	writeFile(t, fs, "data/SEM L1/Tail/adjacency.csv", ",n1\nn1,0\n")
}

func TestDigestDeterministic(t *testing.T) {
	fs := memfs.New()
	populateMirror(t, fs)

	first, err := DigestDir(fs, "data")
	require.NoError(t, err)
	second, err := DigestDir(fs, "data")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDigestIndependentOfCreationOrder(t *testing.T) {
	forward := memfs.New()
	writeFile(t, forward, "data/a.csv", "1")
	writeFile(t, forward, "data/b.csv", "2")
	writeFile(t, forward, "data/sub/c.csv", "3")

	backward := memfs.New()
	writeFile(t, backward, "data/sub/c.csv", "3")
	writeFile(t, backward, "data/b.csv", "2")
	writeFile(t, backward, "data/a.csv", "1")

	first, err := DigestDir(forward, "data")
	require.NoError(t, err)
	second, err := DigestDir(backward, "data")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDigestSensitiveToContent(t *testing.T) {
	fs := memfs.New()
	populateMirror(t, fs)

	before, err := DigestDir(fs, "data")
	require.NoError(t, err)

	writeFile(t, fs, "data/SEM Adult/Head/edge list.csv", "Source,Target,Weight,Type\na,b,2,chem\n")

	after, err := DigestDir(fs, "data")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	// Restoring the original bytes restores the original digest.
	writeFile(t, fs, "data/SEM Adult/Head/edge list.csv", "Source,Target,Weight,Type\na,b,1,chem\n")
	restored, err := DigestDir(fs, "data")
	require.NoError(t, err)
	assert.Equal(t, before, restored)
}

func TestDigestSensitiveToRename(t *testing.T) {
	fs := memfs.New()
	populateMirror(t, fs)

	before, err := DigestDir(fs, "data")
	require.NoError(t, err)

	require.NoError(t, fs.Rename("data/SEM L1/Tail/adjacency.csv", "data/SEM L1/Tail/adjacency matrix.csv"))

	after, err := DigestDir(fs, "data")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	require.NoError(t, fs.Rename("data/SEM L1/Tail/adjacency matrix.csv", "data/SEM L1/Tail/adjacency.csv"))

	restored, err := DigestDir(fs, "data")
	require.NoError(t, err)
	assert.Equal(t, before, restored)
}

func TestDigestSensitiveToAddedAndRemovedFiles(t *testing.T) {
	fs := memfs.New()
	populateMirror(t, fs)

	before, err := DigestDir(fs, "data")
	require.NoError(t, err)

	writeFile(t, fs, "data/SEM L1/Tail/contact list.tsv", "Pre\n")
	added, err := DigestDir(fs, "data")
	require.NoError(t, err)
	assert.NotEqual(t, before, added)

	require.NoError(t, fs.Remove("data/SEM L1/Tail/contact list.tsv"))
	removed, err := DigestDir(fs, "data")
	require.NoError(t, err)
	assert.Equal(t, before, removed)
}

func TestDigestMissingRootIsEmptyTree(t *testing.T) {
	empty := memfs.New()
	require.NoError(t, empty.MkdirAll("data", 0755))

	missing, err := DigestDir(memfs.New(), "data")
	require.NoError(t, err)
	existing, err := DigestDir(empty, "data")
	require.NoError(t, err)

	assert.Equal(t, existing, missing)
}
