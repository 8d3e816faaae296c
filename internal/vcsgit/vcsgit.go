// Package vcsgit implements internal/commitdelta's RepoHandle/CommitHandle/
// Blob interfaces against github.com/go-git/go-git/v5, reading commits and
// trees directly out of the object database. It never touches the working
// tree, checks out a ref, or mutates anything — every operation here is a
// read against already-committed objects.
package vcsgit

import (
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/archdrift/archdrift/internal/commitdelta"
)

// emptyTreeHash is git's well-known empty-tree object id, used as the
// synthetic parent of a root commit.
const emptyTreeHash = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Repo adapts a go-git repository to commitdelta.RepoHandle.
type Repo struct {
	repo *git.Repository
}

// Open opens the git repository rooted at path (a working-tree checkout or
// a bare repository).
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("vcsgit: open %s: %w", path, err)
	}
	return &Repo{repo: r}, nil
}

// ResolveCommit resolves sha — a full hash, abbreviated hash, or ref — to a
// commit handle.
func (r *Repo) ResolveCommit(sha string) (commitdelta.CommitHandle, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(sha))
	if err != nil {
		return nil, fmt.Errorf("vcsgit: resolve %s: %w", sha, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("vcsgit: load commit %s: %w", hash.String(), err)
	}
	return &commitHandle{commit: commit, hash: commit.Hash.String()}, nil
}

// EmptyTreeID returns a commit handle whose tree has no entries, standing
// in for a root commit's absent parent.
func (r *Repo) EmptyTreeID() commitdelta.CommitHandle {
	return &commitHandle{commit: nil, hash: emptyTreeHash}
}

// commitHandle adapts *object.Commit to commitdelta.CommitHandle. A nil
// commit field represents the synthetic empty tree.
type commitHandle struct {
	commit *object.Commit
	hash   string
}

func (c *commitHandle) tree() (*object.Tree, error) {
	if c.commit == nil {
		return &object.Tree{}, nil
	}
	return c.commit.Tree()
}

func (c *commitHandle) Hash() string { return c.hash }

func (c *commitHandle) ParentHash() (string, bool) {
	if c.commit == nil || len(c.commit.ParentHashes) == 0 {
		return "", false
	}
	return c.commit.ParentHashes[0].String(), true
}

// ChangedFiles diffs other's tree against the receiver's, treating other as
// the pre-image side (commitdelta always calls this as
// commit.ChangedFiles(parent)).
func (c *commitHandle) ChangedFiles(other commitdelta.CommitHandle) ([]commitdelta.ChangedFile, error) {
	o, ok := other.(*commitHandle)
	if !ok {
		return nil, fmt.Errorf("vcsgit: ChangedFiles requires a vcsgit commit handle")
	}

	thisTree, err := c.tree()
	if err != nil {
		return nil, err
	}
	otherTree, err := o.tree()
	if err != nil {
		return nil, err
	}

	changes, err := otherTree.Diff(thisTree)
	if err != nil {
		return nil, err
	}

	out := make([]commitdelta.ChangedFile, 0, len(changes))
	for _, ch := range changes {
		var from, to string
		if ch.From.Name != "" {
			from = ch.From.Name
		}
		if ch.To.Name != "" {
			to = ch.To.Name
		}
		out = append(out, commitdelta.ChangedFile{FromPath: from, ToPath: to})
	}
	return out, nil
}

func (c *commitHandle) Blob(path string) (commitdelta.Blob, bool, error) {
	tree, err := c.tree()
	if err != nil {
		return nil, false, err
	}
	file, err := tree.File(path)
	if err != nil {
		if err == object.ErrFileNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &blobHandle{file: file}, true, nil
}

func (c *commitHandle) FileExists(path string) bool {
	tree, err := c.tree()
	if err != nil {
		return false
	}
	_, err = tree.File(path)
	return err == nil
}

func (c *commitHandle) DirExists(path string) bool {
	tree, err := c.tree()
	if err != nil {
		return false
	}
	_, err = tree.Tree(path)
	return err == nil
}

// blobHandle adapts *object.File (which embeds object.Blob) to
// commitdelta.Blob.
type blobHandle struct {
	file *object.File
}

func (b *blobHandle) Reader() (io.ReadCloser, error) {
	return b.file.Reader()
}

func (b *blobHandle) Size() int64 {
	return b.file.Size
}
