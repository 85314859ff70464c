package gitrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/binary"
	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// StagedDiff returns the unified patch between HEAD and the index, like
// `git diff --staged`. A repository without HEAD is compared against the
// empty tree. ErrNoStagedChanges is returned when the patch is empty.
func (r *Repo) StagedDiff(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	repo, err := r.open()
	if err != nil {
		return "", err
	}

	head, err := headEntries(repo)
	if err != nil {
		return "", err
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return "", fmt.Errorf("error reading index: %w", err)
	}

	staged := make(map[string]entry, len(idx.Entries))
	for _, e := range idx.Entries {
		// unmerged paths carry stages 1-3
		if e.Stage > 0 {
			continue
		}
		staged[e.Name] = entry{path: e.Name, hash: e.Hash, mode: e.Mode}
	}

	var patches []fdiff.FilePatch
	for _, path := range unionPaths(head, staged) {
		from, inHead := head[path]
		to, inIndex := staged[path]
		if inHead && inIndex && from.hash == to.hash && from.mode == to.mode {
			continue
		}

		var fromEntry, toEntry *entry
		if inHead {
			fromEntry = &from
		}
		if inIndex {
			toEntry = &to
		}

		fp, err := newFilePatch(repo, fromEntry, toEntry)
		if err != nil {
			return "", err
		}
		patches = append(patches, fp)
	}

	if len(patches) == 0 {
		return "", ErrNoStagedChanges
	}

	var buf bytes.Buffer
	enc := fdiff.NewUnifiedEncoder(&buf, fdiff.DefaultContextLines)
	if err := enc.Encode(stagedPatch{files: patches}); err != nil {
		return "", fmt.Errorf("error encoding diff: %w", err)
	}
	if buf.Len() == 0 {
		return "", ErrNoStagedChanges
	}

	return buf.String(), nil
}

// headEntries lists the files of HEAD's tree keyed by path. It is empty
// when the repository has no commits yet.
func headEntries(repo *git.Repository) (map[string]entry, error) {
	entries := make(map[string]entry)

	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error getting HEAD: %w", err)
	}

	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("error getting HEAD commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("error getting HEAD tree: %w", err)
	}

	err = tree.Files().ForEach(func(f *object.File) error {
		entries[f.Name] = entry{path: f.Name, hash: f.Hash, mode: f.Mode}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking HEAD tree: %w", err)
	}

	return entries, nil
}

func unionPaths(a, b map[string]entry) []string {
	paths := make([]string, 0, len(a)+len(b))
	for p := range a {
		paths = append(paths, p)
	}
	for p := range b {
		if _, ok := a[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func newFilePatch(repo *git.Repository, from, to *entry) (*filePatch, error) {
	fp := &filePatch{from: from, to: to}

	fromContent, fromBinary, err := blobContent(repo, from)
	if err != nil {
		return nil, err
	}
	toContent, toBinary, err := blobContent(repo, to)
	if err != nil {
		return nil, err
	}
	if fromBinary || toBinary {
		fp.binary = true
		return fp, nil
	}

	for _, d := range diff.Do(fromContent, toContent) {
		var op fdiff.Operation
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			op = fdiff.Equal
		case diffmatchpatch.DiffDelete:
			op = fdiff.Delete
		case diffmatchpatch.DiffInsert:
			op = fdiff.Add
		}
		fp.chunks = append(fp.chunks, chunk{content: d.Text, op: op})
	}

	return fp, nil
}

// blobContent reads the blob behind e. Submodule entries render as their
// gitlink like git does.
func blobContent(repo *git.Repository, e *entry) (string, bool, error) {
	if e == nil {
		return "", false, nil
	}
	if e.mode == filemode.Submodule {
		return fmt.Sprintf("Subproject commit %s\n", e.hash), false, nil
	}

	blob, err := repo.BlobObject(e.hash)
	if err != nil {
		return "", false, fmt.Errorf("error reading blob for %s: %w", e.path, err)
	}
	rd, err := blob.Reader()
	if err != nil {
		return "", false, fmt.Errorf("error reading blob for %s: %w", e.path, err)
	}
	defer rd.Close()

	content, err := io.ReadAll(rd)
	if err != nil {
		return "", false, fmt.Errorf("error reading blob for %s: %w", e.path, err)
	}

	isBinary, err := binary.IsBinary(bytes.NewReader(content))
	if err != nil {
		return "", false, fmt.Errorf("error inspecting blob for %s: %w", e.path, err)
	}
	if isBinary {
		return "", true, nil
	}

	return string(content), false, nil
}

// entry is one file of a tree or the index.
type entry struct {
	path string
	hash plumbing.Hash
	mode filemode.FileMode
}

func (e *entry) Hash() plumbing.Hash     { return e.hash }
func (e *entry) Mode() filemode.FileMode { return e.mode }
func (e *entry) Path() string            { return e.path }

type chunk struct {
	content string
	op      fdiff.Operation
}

func (c chunk) Content() string       { return c.content }
func (c chunk) Type() fdiff.Operation { return c.op }

type filePatch struct {
	from, to *entry
	binary   bool
	chunks   []fdiff.Chunk
}

func (p *filePatch) IsBinary() bool { return p.binary }

// Files returns untyped nils for missing sides; the encoder checks them against nil.
func (p *filePatch) Files() (fdiff.File, fdiff.File) {
	var from, to fdiff.File
	if p.from != nil {
		from = p.from
	}
	if p.to != nil {
		to = p.to
	}
	return from, to
}

func (p *filePatch) Chunks() []fdiff.Chunk { return p.chunks }

type stagedPatch struct {
	files []fdiff.FilePatch
}

func (p stagedPatch) FilePatches() []fdiff.FilePatch { return p.files }
func (p stagedPatch) Message() string                { return "" }
