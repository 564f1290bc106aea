package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pzmod/pkg/consistency"
	"github.com/matzehuels/pzmod/pkg/errors"
	"github.com/matzehuels/pzmod/pkg/modlist"
	"github.com/matzehuels/pzmod/pkg/serverconfig"
	"github.com/matzehuels/pzmod/pkg/workshop"
)

// modsCommand creates the mods command group.
func (c *CLI) modsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mods",
		Short: "List, add, remove and check mods",
	}

	cmd.AddCommand(c.modsListCommand())
	cmd.AddCommand(c.modsAddCommand())
	cmd.AddCommand(c.modsAddCollectionCommand())
	cmd.AddCommand(c.modsRemoveCommand())
	cmd.AddCommand(c.modsCheckCommand())

	return cmd
}

// modsListCommand creates the "mods list" subcommand.
func (c *CLI) modsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed workshop items with their mods and dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, ok, err := c.loadConfig(cmd.Context())
			if !ok || err != nil {
				return err
			}
			items, children, err := c.fetchInstalled(cmd.Context(), doc)
			if err != nil {
				return err
			}
			printModList(doc, items, children)
			return nil
		},
	}
}

// modsCheckCommand creates the "mods check" subcommand.
func (c *CLI) modsCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report unknown mods, unused mod IDs and missing dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, ok, err := c.loadConfig(cmd.Context())
			if !ok || err != nil {
				return err
			}
			items, children, err := c.fetchInstalled(cmd.Context(), doc)
			if err != nil {
				return err
			}
			findings := checkMods(doc, items, children)
			if len(findings) == 0 {
				printSuccess("No problems found")
			}
			return nil
		},
	}
}

// modsAddOpts holds the flags of "mods add".
type modsAddOpts struct {
	mods   []string
	start  bool
	after  string
	noSave bool
}

// anchor converts the position flags. --start wins over --after; the
// default is the end of the list.
func (o modsAddOpts) anchor() modlist.Anchor {
	switch {
	case o.start:
		return modlist.Start()
	case o.after != "":
		return modlist.After(o.after)
	default:
		return modlist.End()
	}
}

// modsAddCommand creates the "mods add" subcommand.
func (c *CLI) modsAddCommand() *cobra.Command {
	var opts modsAddOpts

	cmd := &cobra.Command{
		Use:   "add <workshop-id>",
		Short: "Install a workshop item and enable its mods",
		Long: `Install a workshop item and enable its mods.

Without --mod every mod ID the item declares is enabled. Mod IDs of the item
that were enabled before are moved to the new position.`,
		Example: `  pzmod -f servertest.ini mods add 2392709985
  pzmod -f servertest.ini mods add 2392709985 --mod tsarslib --after Hydrocraft`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateWorkshopID(args[0]); err != nil {
				return err
			}
			for _, m := range opts.mods {
				if err := errors.ValidateModID(m); err != nil {
					return err
				}
			}
			ctx := cmd.Context()
			doc, path, ok, err := c.loadConfig(ctx)
			if !ok || err != nil {
				return err
			}
			item, err := c.lookupMod(ctx, args[0])
			if err != nil {
				return err
			}
			mods := opts.mods
			if len(mods) == 0 {
				mods = item.ModIDs
			}
			for _, m := range mods {
				if !item.HasModID(m) {
					return errors.New(errors.ErrCodeInvalidInput, "%s does not declare mod ID %q (available: %s)",
						item, m, strings.Join(item.ModIDs, ", "))
				}
			}
			if len(mods) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "%s declares no mod IDs", item)
			}
			if opts.after != "" && !slices.Contains(modlist.AnchorChoices(modlist.Get(doc, serverconfig.KeyMods), item), opts.after) {
				return errors.New(errors.ErrCodeInvalidInput, "mod ID %q is not enabled", opts.after)
			}

			c.addMod(ctx, doc, item, mods, opts.anchor())
			c.warnMissingDependencies(ctx, doc, item)
			if opts.noSave {
				return nil
			}
			return saveConfig(doc, path)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.mods, "mod", "m", nil, "mod ID to enable (repeatable, default: all)")
	cmd.Flags().BoolVar(&opts.start, "start", false, "add to the beginning of the mod list")
	cmd.Flags().StringVar(&opts.after, "after", "", "add after this mod ID")
	_ = cmd.RegisterFlagCompletionFunc("after", c.completeList(serverconfig.KeyMods))
	cmd.Flags().BoolVarP(&opts.noSave, "no-save", "n", false, "do not save to file")

	return cmd
}

// modsAddCollectionCommand creates the "mods add-collection" subcommand.
func (c *CLI) modsAddCollectionCommand() *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "add-collection <workshop-id>",
		Short: "Install every mod of a workshop collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateWorkshopID(args[0]); err != nil {
				return err
			}
			ctx := cmd.Context()
			doc, path, ok, err := c.loadConfig(ctx)
			if !ok || err != nil {
				return err
			}
			if _, err := c.addCollection(ctx, doc, args[0]); err != nil {
				return err
			}
			if noSave {
				return nil
			}
			return saveConfig(doc, path)
		},
	}

	cmd.Flags().BoolVarP(&noSave, "no-save", "n", false, "do not save to file")

	return cmd
}

// modsRemoveCommand creates the "mods remove" subcommand.
func (c *CLI) modsRemoveCommand() *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:               "remove <workshop-id>...",
		Short:             "Uninstall workshop items and disable their mods",
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeList(serverconfig.KeyWorkshopItems),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := errors.ValidateWorkshopID(id); err != nil {
					return err
				}
			}
			ctx := cmd.Context()
			doc, path, ok, err := c.loadConfig(ctx)
			if !ok || err != nil {
				return err
			}
			items, _, err := c.fetchInstalled(ctx, doc)
			if err != nil {
				return err
			}

			removeMods(doc, items, args)
			if noSave {
				return nil
			}
			return saveConfig(doc, path)
		},
	}

	cmd.Flags().BoolVarP(&noSave, "no-save", "n", false, "do not save to file")

	return cmd
}

// =============================================================================
// Shared Operations
// =============================================================================

// fetchInstalled loads the installed workshop items and their direct
// dependencies.
func (c *CLI) fetchInstalled(ctx context.Context, doc *serverconfig.Document) (items, children []workshop.ModEntry, err error) {
	f, err := c.workshopFetcher()
	if err != nil {
		return nil, nil, err
	}
	ids := modlist.Get(doc, serverconfig.KeyWorkshopItems)

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, "Loading Workshop item details...")
	spinner.Start()
	items, children, err = f.GetWithChildren(ctx, ids)
	spinner.Stop()
	if err != nil {
		return nil, nil, err
	}
	prog.done(fmt.Sprintf("Fetched %d workshop items and %d dependencies", len(items), len(children)))
	return items, children, nil
}

// lookupMod fetches a single workshop item and makes sure it is a mod.
func (c *CLI) lookupMod(ctx context.Context, id string) (workshop.ModEntry, error) {
	f, err := c.workshopFetcher()
	if err != nil {
		return workshop.ModEntry{}, err
	}
	found, err := f.GetDetails(ctx, []string{id})
	if err != nil {
		return workshop.ModEntry{}, err
	}
	if len(found) == 0 {
		return workshop.ModEntry{}, errors.New(errors.ErrCodeInvalidInput, "workshop item %s not found", id)
	}
	item := found[0]
	if item.IsCollection() {
		return workshop.ModEntry{}, errors.New(errors.ErrCodeNotAMod, "%s is a collection; use `%s mods add-collection %s`", item, appName, id)
	}
	if !item.IsMod() {
		return workshop.ModEntry{}, errors.New(errors.ErrCodeNotAMod, "%s is not a mod", item)
	}
	return item, nil
}

// addMod installs item and enables mods at anchor.
func (c *CLI) addMod(ctx context.Context, doc *serverconfig.Document, item workshop.ModEntry, mods []string, anchor modlist.Anchor) {
	applyAdd(doc, item, mods, anchor)
	printSuccess("Mod %s added", StyleHighlight.Render(item.String()))
	loggerFromContext(ctx).Debug("Mods enabled", "item", item.WorkshopID, "mods", mods, "position", anchor)
}

// applyAdd writes the WorkshopItems and Mods changes for item.
func applyAdd(doc *serverconfig.Document, item workshop.ModEntry, mods []string, anchor modlist.Anchor) {
	ids := modlist.Get(doc, serverconfig.KeyWorkshopItems)
	modlist.Set(doc, serverconfig.KeyWorkshopItems, modlist.AddWorkshopID(ids, item.WorkshopID))

	current := modlist.Get(doc, serverconfig.KeyMods)
	modlist.Set(doc, serverconfig.KeyMods, modlist.AddItem(current, mods, item, anchor))
}

// dependenciesToInstall splits the dependencies of item that are not listed
// in WorkshopItems into those the workshop knows and the bare IDs of those
// it does not. A failed lookup is logged and reports every ID as unknown.
func (c *CLI) dependenciesToInstall(ctx context.Context, doc *serverconfig.Document, item workshop.ModEntry) (found []workshop.ModEntry, unknown []string) {
	ids := modlist.Get(doc, serverconfig.KeyWorkshopItems)
	var missing []string
	for _, child := range item.Children {
		if !slices.Contains(ids, child) && !slices.Contains(missing, child) {
			missing = append(missing, child)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	var details []workshop.ModEntry
	if f, err := c.workshopFetcher(); err == nil {
		details, err = f.GetDetails(ctx, missing)
		if err != nil {
			loggerFromContext(ctx).Warn("Could not resolve dependencies", "err", err)
		}
	}
	for _, id := range missing {
		if dep, ok := workshop.Find(details, id); ok {
			found = append(found, dep)
		} else {
			unknown = append(unknown, id)
		}
	}
	return found, unknown
}

// warnMissingDependencies prints one warning per dependency of item that is
// not listed in WorkshopItems.
func (c *CLI) warnMissingDependencies(ctx context.Context, doc *serverconfig.Document, item workshop.ModEntry) {
	found, unknown := c.dependenciesToInstall(ctx, doc, item)
	for _, dep := range found {
		printWarning("Newly added mod is missing dependency %s", dep)
	}
	for _, id := range unknown {
		printWarning("Newly added mod is missing dependency %s, which could not be fetched", id)
	}
}

// addCollection installs every mod of a collection with all its mod IDs
// appended to the mod list.
func (c *CLI) addCollection(ctx context.Context, doc *serverconfig.Document, id string) (int, error) {
	f, err := c.workshopFetcher()
	if err != nil {
		return 0, err
	}

	spinner := newSpinnerWithContext(ctx, "Fetching collection, this may take a while...")
	spinner.Start()
	mods, err := f.ExpandCollection(ctx, id)
	spinner.Stop()
	if err != nil {
		return 0, err
	}
	if len(mods) == 0 {
		printWarning("No mods found in collection %s", id)
		return 0, nil
	}

	added := 0
	for _, item := range mods {
		if len(item.ModIDs) == 0 {
			printWarning("%s declares no mod IDs, skipped", item)
			continue
		}
		applyAdd(doc, item, item.ModIDs, modlist.End())
		added++
	}
	printSuccess("Added %d mod(s) from collection %s", added, id)
	return added, nil
}

// removeMods uninstalls the selected workshop items. Selected IDs that are
// not installed are ignored.
func removeMods(doc *serverconfig.Document, items []workshop.ModEntry, selected []string) {
	installed := modlist.Get(doc, serverconfig.KeyWorkshopItems)
	mods, ids, removed := modlist.RemoveWorkshopItems(items, selected,
		modlist.Get(doc, serverconfig.KeyMods), installed)
	modlist.Set(doc, serverconfig.KeyMods, mods)
	modlist.Set(doc, serverconfig.KeyWorkshopItems, ids)
	printSuccess("%d mod(s) (%d Workshop item(s)) removed", removed, len(installed)-len(ids))
}

// checkMods prints and returns the consistency findings for doc.
func checkMods(doc *serverconfig.Document, items, children []workshop.ModEntry) []consistency.Finding {
	findings := consistency.Check(consistency.Input{
		Enabled:   modlist.Get(doc, serverconfig.KeyMods),
		Installed: modlist.Get(doc, serverconfig.KeyWorkshopItems),
		Maps:      modlist.Get(doc, serverconfig.KeyMap),
		Items:     items,
		Children:  children,
	})
	printFindings(findings)
	return findings
}

// saveConfig writes doc to path and reports it.
func saveConfig(doc *serverconfig.Document, path string) error {
	if err := doc.Save(path); err != nil {
		return err
	}
	printSuccess("Saved server config")
	printFile(path)
	return nil
}

// =============================================================================
// Listing
// =============================================================================

// printModList renders the installed items as a table followed by banned
// item warnings and a legend.
func printModList(doc *serverconfig.Document, items, children []workshop.ModEntry) {
	enabled := modlist.Get(doc, serverconfig.KeyMods)
	installed := modlist.Get(doc, serverconfig.KeyWorkshopItems)

	fmt.Fprintln(stdout, StyleTitle.Render(fmt.Sprintf("Listing %d mods:", len(items))))

	rows := make([][]string, 0, len(items))
	var total uint64
	for _, item := range items {
		rows = append(rows, []string{
			item.WorkshopID,
			item.Title,
			humanize.Bytes(item.FileSize),
			renderModIDs(item, enabled),
			renderDependencies(item, children, installed, enabled),
		})
		total += item.FileSize
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Workshop ID", "Title", "Size", "Mod IDs", "Dependencies").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			if col == 0 || col == 2 {
				return base.Foreground(colorGray)
			}
			if col == 1 && row < len(items) && items[row].Banned {
				return base.Foreground(colorRed).Bold(true)
			}
			return base
		})
	fmt.Fprintln(stdout, t.Render())
	printDetail("Total download size: %s", humanize.Bytes(total))

	for _, item := range items {
		if item.Banned {
			printWarning("%s has been banned from the workshop!", item)
			printDetail("%s", item.URL())
		}
	}

	printNewline()
	printDetail("Mod IDs in %s are not enabled.", "gray")
	fmt.Fprintln(stdout, "  "+StyleDim.Render("Dependencies marked ")+StyleWarning.Render("yellow")+StyleDim.Render(" are installed but not enabled."))
	fmt.Fprintln(stdout, "  "+StyleDim.Render("Dependencies marked ")+StyleError.Render("red")+StyleDim.Render(" are not installed."))
}

func renderModIDs(item workshop.ModEntry, enabled []string) string {
	if len(item.ModIDs) == 0 {
		return StyleDim.Render("none")
	}
	parts := make([]string, len(item.ModIDs))
	for i, id := range item.ModIDs {
		if slices.Contains(enabled, id) {
			parts[i] = id
		} else {
			parts[i] = StyleDim.Render(id)
		}
	}
	return strings.Join(parts, "\n")
}

func renderDependencies(item workshop.ModEntry, children []workshop.ModEntry, installed, enabled []string) string {
	if len(item.Children) == 0 {
		return StyleDim.Render("None")
	}
	parts := make([]string, 0, len(item.Children))
	for _, id := range item.Children {
		child, ok := workshop.Find(children, id)
		if !ok {
			parts = append(parts, StyleError.Render(id)+StyleDim.Render(" (missing from workshop)"))
			continue
		}
		isInstalled := slices.Contains(installed, child.WorkshopID)
		isEnabled := isInstalled && slices.ContainsFunc(child.ModIDs, func(m string) bool { return slices.Contains(enabled, m) })
		label := child.String()
		switch {
		case !isInstalled:
			label = StyleError.Render(label)
		case !isEnabled:
			label = StyleWarning.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "\n")
}
