package serverconfig

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/matzehuels/pzmod/pkg/errors"
)

// lockTimeout bounds how long Save waits for another writer.
const lockTimeout = 5 * time.Second

// LoadOptions controls Load.
type LoadOptions struct {
	// Backup copies the raw file to BackupPath(BackupDir, path) before it is
	// parsed.
	Backup bool
	// BackupDir overrides the backup directory. Empty means the user's home.
	BackupDir string
}

// BackupPath returns where the backup of source is written:
// <dir>/.pzmod_<base>.bak. An empty dir means the user's home directory.
func BackupPath(dir, source string) string {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		dir = home
	}
	return filepath.Join(dir, ".pzmod_"+filepath.Base(source)+".bak")
}

// Load reads and parses the config at path.
//
// With opts.Backup set, the file content is written to the backup location
// before parsing, so a backup exists even when the file turns out to be
// invalid. Load returns FILE_NOT_FOUND when path does not exist.
func Load(path string, opts LoadOptions) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "file %s does not exist", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}

	if opts.Backup && len(b) > 0 {
		if err := writeBackup(BackupPath(opts.BackupDir, path), b); err != nil {
			return nil, err
		}
	}

	return Parse(string(b))
}

func writeBackup(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create backup directory")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write backup %s", path)
	}
	return nil
}

// WriteTo writes the serialized document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.Serialize())
	return int64(n), err
}

// Save writes the document to path.
//
// The text goes to a temporary file in the same directory which is renamed
// over path, all while holding an advisory lock on path+".lock". The lock
// file is left in place.
func (d *Document) Save(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !ok {
		if err == nil {
			err = ctx.Err()
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "lock %s", path)
	}
	defer func() { _ = lock.Unlock() }()

	perm := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := d.WriteTo(tmp); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "save %s", path)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "save %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save %s", path)
	}
	return nil
}

// HasUnsavedChanges reports whether the file at path differs from d. An
// unreadable or invalid file always counts as changed.
func (d *Document) HasUnsavedChanges(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()
	saved, err := Read(f)
	if err != nil {
		return true
	}
	return !d.Equal(saved)
}

// NormalizeDescription encodes line breaks the way the server expects in
// PublicDescription.
func NormalizeDescription(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<line>")
}
