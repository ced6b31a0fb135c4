package internal

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/zeebo/blake3"
)

// digestChunkSize bounds memory while folding file contents into the hash.
const digestChunkSize = 64 * 1024

// DigestDir computes a fingerprint of everything under root: every file's
// path relative to root and its full byte content, folded into one BLAKE3
// accumulator. Directory and file names are sorted independently at every
// level, so the result depends only on the tree's contents, never on the
// filesystem's iteration order. A missing root digests as the empty tree.
// Any read error aborts: a digest over a partially read tree would report a
// wrong change verdict.
func DigestDir(fs billy.Filesystem, root string) (string, error) {
	hasher := blake3.New()

	if _, err := fs.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return hex.EncodeToString(hasher.Sum(nil)), nil
		}
		return "", fmt.Errorf("stat digest root %s: %w", root, err)
	}

	if err := digestLevel(fs, root, "", hasher); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func digestLevel(fs billy.Filesystem, root, rel string, hasher *blake3.Hasher) error {
	entries, err := fs.ReadDir(fs.Join(root, rel))
	if err != nil {
		return fmt.Errorf("listing %s: %w", fs.Join(root, rel), err)
	}

	var dirs, files []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		} else {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)

	for _, name := range files {
		if err := digestFile(fs, root, join(rel, name), hasher); err != nil {
			return err
		}
	}
	for _, name := range dirs {
		if err := digestLevel(fs, root, join(rel, name), hasher); err != nil {
			return err
		}
	}
	return nil
}

// digestFile folds the file's root-relative path components and then its
// content into the accumulator.
func digestFile(fs billy.Filesystem, root, rel string, hasher *blake3.Hasher) error {
	for _, part := range strings.Split(rel, "/") {
		hasher.Write([]byte(part))
	}

	file, err := fs.Open(fs.Join(root, rel))
	if err != nil {
		return fmt.Errorf("opening %s for digest: %w", rel, err)
	}
	defer file.Close()

	buf := make([]byte, digestChunkSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s for digest: %w", rel, err)
		}
	}
}

func join(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "/" + name
}
