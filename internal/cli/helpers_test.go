package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/pzmod/pkg/steam"
)

const testAPIKey = "0123456789abcdef0123456789abcdef"

const testServerConfig = `# Server name
PublicName=My Server

PublicDescription=Hello

Public=true

Password=secret

MaxPlayers=16

Mods=modA;modB

WorkshopItems=100;200

`

// fakeWorkshop answers from a fixed set of published files. IDs it does
// not know come back with a non-OK result.
type fakeWorkshop struct {
	mu    sync.Mutex
	files map[string]steam.PublishedFile
	calls int
}

func newFakeWorkshop() *fakeWorkshop {
	w := &fakeWorkshop{files: map[string]steam.PublishedFile{}}
	w.add("100", "Alpha", steam.FileTypeMod, "Mod ID: modA", "300")
	w.add("200", "Beta", steam.FileTypeMod, "Mod ID: modB\nMod ID: modB2")
	w.add("300", "Lib", steam.FileTypeMod, "Mod ID: lib")
	w.add("400", "Pack", steam.FileTypeCollection, "", "100", "500")
	w.add("500", "Extra", steam.FileTypeMod, "Mod ID: extra")
	return w
}

func (w *fakeWorkshop) add(id, title string, fileType int, desc string, children ...string) {
	f := steam.PublishedFile{
		Result:          steam.ResultOK,
		PublishedFileID: id,
		Title:           title,
		Description:     desc,
		FileType:        fileType,
		FileSize:        steam.ItemSize(len(id) * 1000),
	}
	for _, c := range children {
		f.Children = append(f.Children, steam.Child{PublishedFileID: c})
	}
	w.files[id] = f
}

func (w *fakeWorkshop) GetDetails(ctx context.Context, ids []string) ([]steam.PublishedFile, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	out := make([]steam.PublishedFile, 0, len(ids))
	for _, id := range ids {
		f, ok := w.files[id]
		if !ok {
			f = steam.PublishedFile{Result: 9, PublishedFileID: id}
		}
		out = append(out, f)
	}
	return out, nil
}

// scriptedPrompter replays answers in order. Each answer is a string for
// Select and Input, a []string for MultiSelect, a bool for Confirm or an
// error for any prompt. Once the script runs out every prompt aborts.
type scriptedPrompter struct {
	t       *testing.T
	answers []any
	titles  []string
	options map[string][]option // last options shown per title
	defs    []bool
}

func (p *scriptedPrompter) next(title string) any {
	p.titles = append(p.titles, title)
	if len(p.answers) == 0 {
		return errAborted
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a
}

func (p *scriptedPrompter) record(title string, options []option) {
	if p.options == nil {
		p.options = map[string][]option{}
	}
	p.options[title] = options
}

func (p *scriptedPrompter) Select(ctx context.Context, title string, options []option) (string, error) {
	p.record(title, options)
	switch a := p.next(title).(type) {
	case error:
		return "", a
	case string:
		return a, nil
	default:
		p.t.Fatalf("Select(%q): unexpected answer %#v", title, a)
		return "", nil
	}
}

func (p *scriptedPrompter) MultiSelect(ctx context.Context, title string, options []option) ([]string, error) {
	p.record(title, options)
	switch a := p.next(title).(type) {
	case error:
		return nil, a
	case []string:
		return a, nil
	default:
		p.t.Fatalf("MultiSelect(%q): unexpected answer %#v", title, a)
		return nil, nil
	}
}

func (p *scriptedPrompter) Input(ctx context.Context, title string, secret bool) (string, error) {
	switch a := p.next(title).(type) {
	case error:
		return "", a
	case string:
		return a, nil
	default:
		p.t.Fatalf("Input(%q): unexpected answer %#v", title, a)
		return "", nil
	}
}

func (p *scriptedPrompter) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	p.defs = append(p.defs, def)
	switch a := p.next(title).(type) {
	case error:
		return false, a
	case bool:
		return a, nil
	default:
		p.t.Fatalf("Confirm(%q): unexpected answer %#v", title, a)
		return false, nil
	}
}

// testEnv is a CLI wired to a fake workshop, a temp server config and a
// temp settings file.
type testEnv struct {
	t        *testing.T
	cli      *CLI
	workshop *fakeWorkshop
	prompter *scriptedPrompter
	out      *bytes.Buffer

	dir        string
	file       string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, k := range []string{"API_KEY", "BACKUP", "BACKUP_DIR", "LOG_LEVEL", "REQUEST_TIMEOUT"} {
		t.Setenv("PZMOD_"+k, "")
	}

	dir := t.TempDir()
	file := filepath.Join(dir, "servertest.ini")
	if err := os.WriteFile(file, []byte(testServerConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	prev := stdout
	stdout = &out
	t.Cleanup(func() { stdout = prev })

	e := &testEnv{
		t:          t,
		workshop:   newFakeWorkshop(),
		prompter:   &scriptedPrompter{t: t},
		out:        &out,
		dir:        dir,
		file:       file,
		configPath: filepath.Join(dir, "settings.toml"),
	}
	e.cli = New(io.Discard, LogInfo)
	e.cli.client = e.workshop
	e.cli.prompter = e.prompter
	return e
}

// run executes the root command with the environment's global flags
// followed by args.
func (e *testEnv) run(args ...string) error {
	e.t.Helper()
	root := e.cli.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{
		"--file", e.file,
		"--config", e.configPath,
		"--backup-dir", filepath.Join(e.dir, "backups"),
	}, args...))
	return root.ExecuteContext(context.Background())
}

// writeConfig replaces the server config with a PublicName line followed
// by body.
func (e *testEnv) writeConfig(body string) {
	e.t.Helper()
	if err := os.WriteFile(e.file, []byte("PublicName=My Server\n\n"+body), 0o644); err != nil {
		e.t.Fatal(err)
	}
}

// script queues prompt answers.
func (e *testEnv) script(answers ...any) {
	e.prompter.answers = append(e.prompter.answers, answers...)
}

// saved returns the value of key in the server config on disk.
func (e *testEnv) saved(key string) string {
	e.t.Helper()
	b, err := os.ReadFile(e.file)
	if err != nil {
		e.t.Fatal(err)
	}
	for _, line := range strings.Split(string(b), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok && k == key {
			return v
		}
	}
	e.t.Fatalf("key %s not in %s", key, e.file)
	return ""
}

func (e *testEnv) assertOutput(want ...string) {
	e.t.Helper()
	for _, w := range want {
		if !strings.Contains(e.out.String(), w) {
			e.t.Errorf("output missing %q:\n%s", w, e.out.String())
		}
	}
}
