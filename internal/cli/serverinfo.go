package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pzmod/pkg/errors"
	"github.com/matzehuels/pzmod/pkg/modlist"
	"github.com/matzehuels/pzmod/pkg/serverconfig"
)

// setting is a server config key exposed under a short name.
type setting struct {
	name  string
	key   string
	label string
	// parse turns user input into the stored value.
	parse func(string) (serverconfig.Value, error)
}

var serverSettings = []setting{
	{"name", serverconfig.KeyPublicName, "Server name", parseText},
	{"desc", serverconfig.KeyPublicDescription, "Server description", parseDescription},
	{"public", serverconfig.KeyPublic, "Public", parsePublic},
	{"password", serverconfig.KeyPassword, "Password", parseText},
	{"slots", serverconfig.KeyMaxPlayers, "Max players", parseSlots},
}

func lookupSetting(name string) (setting, error) {
	i := slices.IndexFunc(serverSettings, func(s setting) bool { return s.name == name })
	if i < 0 {
		return setting{}, errors.New(errors.ErrCodeInvalidKey, "unknown setting %q (available: %s)", name, settingNames())
	}
	return serverSettings[i], nil
}

func settingNames() string {
	names := make([]string, len(serverSettings))
	for i, s := range serverSettings {
		names[i] = s.name
	}
	return strings.Join(names, ", ")
}

func parseText(v string) (serverconfig.Value, error) {
	if err := errors.ValidateValue(v); err != nil {
		return serverconfig.Value{}, err
	}
	return serverconfig.String(v), nil
}

func parseDescription(v string) (serverconfig.Value, error) {
	return serverconfig.String(serverconfig.NormalizeDescription(v)), nil
}

func parsePublic(v string) (serverconfig.Value, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	return serverconfig.Bool(v == "true" || v == "1"), nil
}

func parseSlots(v string) (serverconfig.Value, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return serverconfig.Value{}, errors.New(errors.ErrCodeInvalidInput, "slots must be a positive number, got %q", v)
	}
	return serverconfig.Number(float64(n)), nil
}

// getCommand creates the get command.
func (c *CLI) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "get <name>",
		Short:     "Print a server setting (name, desc, public, password, slots)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: append(strings.Split(settingNames(), ", "), "list"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "list" {
				printInfo("Available settings: %s", settingNames())
				return nil
			}
			s, err := lookupSetting(args[0])
			if err != nil {
				return err
			}
			doc, _, ok, err := c.loadConfig(cmd.Context())
			if !ok || err != nil {
				return err
			}
			fmt.Fprintln(stdout, doc.GetString(s.key))
			return nil
		},
	}
}

// setCommand creates the set command.
func (c *CLI) setCommand() *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Change a server setting (name, desc, public, password, slots)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := lookupSetting(args[0])
			if err != nil {
				return err
			}
			v, err := s.parse(args[1])
			if err != nil {
				return err
			}
			doc, path, ok, err := c.loadConfig(cmd.Context())
			if !ok || err != nil {
				return err
			}
			doc.Set(s.key, v)
			loggerFromContext(cmd.Context()).Debug("Setting changed", "key", s.key, "value", v)
			if noSave {
				return nil
			}
			return saveConfig(doc, path)
		},
	}

	cmd.Flags().BoolVarP(&noSave, "no-save", "n", false, "do not save to file")

	return cmd
}

// updateServerInfo lets the user pick a setting and enter a new value.
func (c *CLI) updateServerInfo(ctx context.Context, doc *serverconfig.Document) error {
	opts := make([]option, len(serverSettings))
	for i, s := range serverSettings {
		opts[i] = option{
			Label: fmt.Sprintf("%-20s %s", s.label, StyleDim.Render(displayValue(s, doc))),
			Value: s.name,
		}
	}
	name, err := c.prompter.Select(ctx, "Which setting would you like to change?", opts)
	if err != nil {
		return err
	}
	s, err := lookupSetting(name)
	if err != nil {
		return err
	}

	input, err := c.prompter.Input(ctx, s.label+":", s.name == "password")
	if err != nil {
		return err
	}
	v, err := s.parse(input)
	if err != nil {
		printError("%s", errors.UserMessage(err))
		return nil
	}
	doc.Set(s.key, v)
	printSuccess("%s updated", s.label)
	return nil
}

func displayValue(s setting, doc *serverconfig.Document) string {
	v := doc.GetString(s.key)
	if s.name == "password" && v != "" {
		return "********"
	}
	if v == "" {
		return "(empty)"
	}
	return v
}

// infoCommand creates the info command, which prints every server setting.
func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the server settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, path, ok, err := c.loadConfig(cmd.Context())
			if !ok || err != nil {
				return err
			}
			printFile(path)
			for _, s := range serverSettings {
				printKeyValue(s.name, displayValue(s, doc))
			}
			mods := len(modlist.Get(doc, serverconfig.KeyMods))
			items := len(modlist.Get(doc, serverconfig.KeyWorkshopItems))
			printKeyValue("mods", fmt.Sprintf("%d enabled, %d Workshop item(s)", mods, items))
			return nil
		},
	}
}
