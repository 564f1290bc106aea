package serverconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/pzmod/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBackupPath(t *testing.T) {
	got := BackupPath("/backups", "/srv/pz/Server/servertest.ini")
	if want := filepath.Join("/backups", ".pzmod_servertest.ini.bak"); got != want {
		t.Errorf("BackupPath() = %q, want %q", got, want)
	}
	home, err := os.UserHomeDir()
	if err == nil {
		if got := BackupPath("", "servertest.ini"); got != filepath.Join(home, ".pzmod_servertest.ini.bak") {
			t.Errorf("BackupPath() default = %q", got)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	backups := filepath.Join(dir, "backups")
	path := writeFile(t, dir, "servertest.ini", sample)

	d, err := Load(path, LoadOptions{Backup: true, BackupDir: backups})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if d.GetString(KeyPublicName) != "My Server" {
		t.Errorf("PublicName = %q", d.GetString(KeyPublicName))
	}

	b, err := os.ReadFile(BackupPath(backups, path))
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if string(b) != sample {
		t.Error("backup differs from source")
	}
}

func TestLoad_BackupWrittenForInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.ini", "Foo=bar\n")

	_, err := Load(path, LoadOptions{Backup: true, BackupDir: dir})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("err = %v, want INVALID_CONFIG", err)
	}
	b, err := os.ReadFile(BackupPath(dir, path))
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if string(b) != "Foo=bar\n" {
		t.Errorf("backup = %q", b)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.ini"), LoadOptions{})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: err = %v", err)
	}

	empty := writeFile(t, dir, "empty.ini", "")
	_, err = Load(empty, LoadOptions{Backup: true, BackupDir: dir})
	if !errors.Is(err, errors.ErrCodeEmptyFile) {
		t.Errorf("empty file: err = %v", err)
	}

	noBackup := writeFile(t, dir, "plain.ini", sample)
	if _, err := Load(noBackup, LoadOptions{BackupDir: dir}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := os.Stat(BackupPath(dir, noBackup)); !os.IsNotExist(err) {
		t.Error("backup written although disabled")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "servertest.ini", sample)

	d, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if d.HasUnsavedChanges(path) {
		t.Error("freshly loaded document reported as changed")
	}

	d.Set(KeyMods, String("tsarslib"))
	if !d.HasUnsavedChanges(path) {
		t.Error("modified document reported as saved")
	}

	if err := d.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if d.HasUnsavedChanges(path) {
		t.Error("saved document reported as changed")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != d.Serialize() {
		t.Error("file content differs from Serialize()")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600 preserved", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestSave_NewPath(t *testing.T) {
	d, err := Parse(sample)
	if err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(t.TempDir(), "copy.ini")
	if !d.HasUnsavedChanges(target) {
		t.Error("missing target should count as changed")
	}
	if err := d.Save(target); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if d.HasUnsavedChanges(target) {
		t.Error("copy reported as changed")
	}
}

func TestNormalizeDescription(t *testing.T) {
	if got := NormalizeDescription("a\r\nb\nc"); got != "a<line>b<line>c" {
		t.Errorf("NormalizeDescription() = %q", got)
	}
}
