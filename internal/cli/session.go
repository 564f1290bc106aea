package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/matzehuels/pzmod/pkg/errors"
	"github.com/matzehuels/pzmod/pkg/modlist"
	"github.com/matzehuels/pzmod/pkg/serverconfig"
	"github.com/matzehuels/pzmod/pkg/workshop"
)

// Main menu actions.
const (
	actionList          = "list"
	actionAdd           = "add"
	actionAddCollection = "add-collection"
	actionRemove        = "remove"
	actionCheck         = "check"
	actionInfo          = "info"
	actionSave          = "save"
	actionSaveTo        = "save-to"
	actionAPIKey        = "api-key"
	actionExit          = "exit"
)

var mainMenu = []option{
	{Label: "List installed mods", Value: actionList},
	{Label: "Install mod", Value: actionAdd},
	{Label: "Install mods from collection", Value: actionAddCollection},
	{Label: "Remove mods", Value: actionRemove},
	{Label: "Check for problems", Value: actionCheck},
	{Label: "Update server info", Value: actionInfo},
	{Label: "Write config file (save changes)", Value: actionSave},
	{Label: "Copy server config to", Value: actionSaveTo},
	{Label: "Set Steam API key", Value: actionAPIKey},
	{Label: "Exit", Value: actionExit},
}

// Anchor choices that cannot collide with a mod ID.
const (
	anchorStartValue = "\x00start"
	anchorEndValue   = "\x00end"
)

// session is one interactive editing run over a single server config.
type session struct {
	cli  *CLI
	doc  *serverconfig.Document
	path string

	items    []workshop.ModEntry
	children []workshop.ModEntry
}

// runInteractive drives the main menu until the user exits.
func (c *CLI) runInteractive(ctx context.Context) error {
	if _, tty := c.prompter.(teaPrompter); tty && !isTerminal(os.Stdin) {
		printError("Interactive mode needs a terminal")
		printNextStep("Use a subcommand instead, e.g.", appName+" --file servertest.ini mods list")
		return nil
	}

	doc, path, ok, err := c.loadConfig(ctx)
	if !ok || err != nil {
		return err
	}
	if err := c.ensureAPIKey(ctx); err != nil {
		return quietAbort(err)
	}

	s := &session{cli: c, doc: doc, path: path}
	for {
		s.refresh(ctx)

		action, err := c.prompter.Select(ctx, "What would you like to do?", mainMenu)
		if err == errAborted {
			action = actionExit
		} else if err != nil {
			return quietAbort(err)
		}

		if action == actionExit {
			done, err := s.confirmExit(ctx)
			if err != nil {
				return quietAbort(err)
			}
			if done {
				return nil
			}
			continue
		}

		if err := s.run(ctx, action); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != errAborted {
				printError("%s", errorText(err))
			}
		}
		printNewline()
	}
}

// quietAbort turns a prompt abort into a clean exit.
func quietAbort(err error) error {
	if err == errAborted {
		return nil
	}
	return err
}

// ensureAPIKey prompts until a valid API key is stored, unless one is
// configured or a client was injected.
func (c *CLI) ensureAPIKey(ctx context.Context) error {
	for c.client == nil && (c.Settings == nil || c.Settings.APIKey == "") {
		printInfo("A Steam Web API key is required, get one at %s", StyleLink.Render(apiKeyURL))
		key, err := c.prompter.Input(ctx, "Please enter your Steam API key:", true)
		if err != nil {
			return err
		}
		if key == "" {
			printError("API key cannot be empty")
			continue
		}
		if err := c.storeAPIKey(ctx, key); err != nil {
			printError("%s", errors.UserMessage(err))
		}
	}
	return nil
}

// refresh fetches the installed items and prints the findings.
func (s *session) refresh(ctx context.Context) {
	items, children, err := s.cli.fetchInstalled(ctx, s.doc)
	if err != nil {
		printError("%s", errorText(err))
		return
	}
	s.items, s.children = items, children
	checkMods(s.doc, items, children)
}

func (s *session) run(ctx context.Context, action string) error {
	switch action {
	case actionList:
		printModList(s.doc, s.items, s.children)
	case actionAdd:
		return s.addMods(ctx)
	case actionAddCollection:
		return s.addCollection(ctx)
	case actionRemove:
		return s.removeMods(ctx)
	case actionCheck:
		if len(checkMods(s.doc, s.items, s.children)) == 0 {
			printSuccess("No problems found")
		}
	case actionInfo:
		return s.cli.updateServerInfo(ctx, s.doc)
	case actionSave:
		return saveConfig(s.doc, s.path)
	case actionSaveTo:
		return s.saveTo(ctx)
	case actionAPIKey:
		key, err := s.cli.prompter.Input(ctx, "Steam API key:", true)
		if err != nil {
			return err
		}
		return s.cli.storeAPIKey(ctx, key)
	default:
		printWarning("Unknown action %q", action)
	}
	return nil
}

// addMods asks for workshop IDs until the user is done.
func (s *session) addMods(ctx context.Context) error {
	for {
		added, err := s.addOne(ctx)
		if err != nil {
			return err
		}
		if !added {
			continue
		}
		more, err := s.cli.prompter.Confirm(ctx, "Would you like to add more mods?", false)
		if err != nil || !more {
			return err
		}
	}
}

// addOne runs one add round. added is false when the round should be
// repeated after an input problem.
func (s *session) addOne(ctx context.Context) (added bool, err error) {
	p := s.cli.prompter
	id, err := p.Input(ctx, "Please enter the Workshop ID of the mod you would like to add:", false)
	if err != nil {
		return false, err
	}
	if err := errors.ValidateWorkshopID(id); err != nil {
		printError("%s", errors.UserMessage(err))
		return false, nil
	}

	item, err := s.cli.lookupMod(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrCodeInvalidInput) || errors.Is(err, errors.ErrCodeNotAMod) {
			printError("%s", errors.UserMessage(err))
			return false, nil
		}
		return false, err
	}
	if len(item.ModIDs) == 0 {
		printError("%s declares no mod IDs", item)
		return false, nil
	}

	enabled := modlist.Get(s.doc, serverconfig.KeyMods)
	modOpts := make([]option, len(item.ModIDs))
	for i, m := range item.ModIDs {
		modOpts[i] = option{Label: m, Value: m, Checked: slices.Contains(enabled, m) || len(item.ModIDs) == 1}
	}
	mods, err := p.MultiSelect(ctx, "Please select the mod(s) you would like to enable:", modOpts)
	if err != nil {
		return false, err
	}
	if len(mods) == 0 {
		printWarning("No mods selected")
		return false, nil
	}

	anchorOpts := []option{
		{Label: "Add to the beginning of the list", Value: anchorStartValue},
		{Label: "Add to the end of the list", Value: anchorEndValue},
	}
	for _, m := range modlist.AnchorChoices(enabled, item) {
		anchorOpts = append(anchorOpts, option{Label: "After " + m, Value: m})
	}
	where, err := p.Select(ctx, "Where would you like to add this mod?", anchorOpts)
	if err != nil {
		return false, err
	}

	s.cli.addMod(ctx, s.doc, item, mods, anchorFromChoice(where))
	return true, s.offerDependencies(ctx, item)
}

// offerDependencies asks to install each dependency of item that is not
// installed yet. Accepted dependencies are added with all their mod IDs at
// the start of the mod list so they load first, and are checked in turn.
func (s *session) offerDependencies(ctx context.Context, item workshop.ModEntry) error {
	found, unknown := s.cli.dependenciesToInstall(ctx, s.doc, item)
	if len(found) > 0 {
		printInfo("Found dependencies:")
		for _, dep := range found {
			printDetail("- %s", dep)
		}
	}
	for _, dep := range found {
		if slices.Contains(modlist.Get(s.doc, serverconfig.KeyWorkshopItems), dep.WorkshopID) {
			continue
		}
		ok, err := s.cli.prompter.Confirm(ctx, fmt.Sprintf("Add dependency %q?", dep.Title), true)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if len(dep.ModIDs) == 0 || !dep.IsMod() {
			printWarning("%s is not a mod with mod IDs, skipped", dep)
			continue
		}
		s.cli.addMod(ctx, s.doc, dep, dep.ModIDs, modlist.Start())
		if err := s.offerDependencies(ctx, dep); err != nil {
			return err
		}
	}
	if len(unknown) > 0 {
		printWarning("Missing dependencies:")
		for _, id := range unknown {
			printDetail("- %s", id)
		}
	}
	return nil
}

func anchorFromChoice(v string) modlist.Anchor {
	switch v {
	case anchorStartValue:
		return modlist.Start()
	case anchorEndValue:
		return modlist.End()
	default:
		return modlist.After(v)
	}
}

func (s *session) addCollection(ctx context.Context) error {
	id, err := s.cli.prompter.Input(ctx, "Collection Workshop ID:", false)
	if err != nil {
		return err
	}
	if err := errors.ValidateWorkshopID(id); err != nil {
		return err
	}
	_, err = s.cli.addCollection(ctx, s.doc, id)
	return err
}

func (s *session) removeMods(ctx context.Context) error {
	opts := make([]option, len(s.items))
	for i, item := range s.items {
		opts[i] = option{Label: item.String(), Value: item.WorkshopID}
	}
	selected, err := s.cli.prompter.MultiSelect(ctx, "Please select the mod(s) you would like to remove:", opts)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		printWarning("No mods selected")
		return nil
	}
	removeMods(s.doc, s.items, selected)
	return nil
}

func (s *session) saveTo(ctx context.Context) error {
	p := s.cli.prompter
	input, err := p.Input(ctx, "Path to copy the server config to:", false)
	if err != nil {
		return err
	}
	if input == "" {
		printError("Path cannot be empty")
		return nil
	}
	target, err := filepath.Abs(input)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid path %s", input)
	}
	if _, err := os.Stat(target); err == nil {
		overwrite, err := p.Confirm(ctx, "File exists. Overwrite?", false)
		if err != nil || !overwrite {
			return err
		}
	}
	return saveConfig(s.doc, target)
}

// confirmExit warns about unsaved changes and asks for confirmation.
func (s *session) confirmExit(ctx context.Context) (bool, error) {
	changed := s.doc.HasUnsavedChanges(s.path)
	if changed {
		printWarning("You have unsaved changes.")
	}
	return s.cli.prompter.Confirm(ctx, "Are you sure you want to exit?", !changed)
}
