// Package modlist edits the Mods and WorkshopItems lists of a server config.
//
// Both lists are ';'-separated. All functions return new slices and never
// modify their inputs.
package modlist

import (
	"slices"
	"strings"

	"github.com/matzehuels/pzmod/pkg/serverconfig"
	"github.com/matzehuels/pzmod/pkg/workshop"
)

// Separator joins list elements in a config value.
const Separator = ";"

// Split splits a list value, dropping empty segments.
func Split(value string) []string {
	var out []string
	for _, s := range strings.Split(value, Separator) {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Join is the inverse of Split.
func Join(list []string) string {
	return strings.Join(list, Separator)
}

// Get returns the list stored under key, or nil if the key is absent.
func Get(doc *serverconfig.Document, key string) []string {
	return Split(doc.GetString(key))
}

// Set stores list under key as a string value.
func Set(doc *serverconfig.Document, key string, list []string) {
	doc.Set(key, serverconfig.String(Join(list)))
}

// Anchor selects where AddModIDs inserts.
type Anchor struct {
	kind  anchorKind
	modID string
}

type anchorKind int

const (
	anchorStart anchorKind = iota
	anchorEnd
	anchorAfter
)

// Start inserts before every other mod.
func Start() Anchor { return Anchor{kind: anchorStart} }

// End appends after every other mod.
func End() Anchor { return Anchor{kind: anchorEnd} }

// After inserts directly behind the first occurrence of modID.
func After(modID string) Anchor { return Anchor{kind: anchorAfter, modID: modID} }

// String describes the anchor for prompts and logs.
func (a Anchor) String() string {
	switch a.kind {
	case anchorStart:
		return "start"
	case anchorEnd:
		return "end"
	default:
		return "after " + a.modID
	}
}

// FilterExistingModIDs drops every ID from current that item declares,
// whether or not it is about to be re-added.
func FilterExistingModIDs(current []string, item workshop.ModEntry) []string {
	out := make([]string, 0, len(current))
	for _, id := range current {
		if !item.HasModID(id) {
			out = append(out, id)
		}
	}
	return out
}

// AddModIDs inserts newIDs into current at anchor. An After anchor that is
// not in current inserts at the start.
func AddModIDs(current, newIDs []string, anchor Anchor) []string {
	var at int
	switch anchor.kind {
	case anchorStart:
		at = 0
	case anchorEnd:
		at = len(current)
	case anchorAfter:
		at = slices.Index(current, anchor.modID) + 1
	}
	out := make([]string, 0, len(current)+len(newIDs))
	out = append(out, current[:at]...)
	out = append(out, newIDs...)
	return append(out, current[at:]...)
}

// AddItem replaces whatever mods of item are enabled with newIDs at anchor.
func AddItem(current, newIDs []string, item workshop.ModEntry, anchor Anchor) []string {
	return AddModIDs(FilterExistingModIDs(current, item), newIDs, anchor)
}

// AddWorkshopID appends id unless it is already listed.
func AddWorkshopID(current []string, id string) []string {
	out := slices.Clone(current)
	if slices.Contains(out, id) {
		return out
	}
	return append(out, id)
}

// AnchorChoices lists the mod IDs an item's mods may be placed after: the
// enabled IDs that do not belong to item, in list order.
func AnchorChoices(current []string, item workshop.ModEntry) []string {
	return FilterExistingModIDs(current, item)
}

// RemoveWorkshopItems drops the selected workshop IDs and every enabled mod
// ID declared by the selected items. Remaining order is kept. removed counts
// the mod IDs that were dropped.
func RemoveWorkshopItems(items []workshop.ModEntry, selected, currentModIDs, currentWorkshopIDs []string) (mods, workshopIDs []string, removed int) {
	drop := make(map[string]bool)
	for _, id := range selected {
		item, ok := workshop.Find(items, id)
		if !ok {
			continue
		}
		for _, m := range item.ModIDs {
			if slices.Contains(currentModIDs, m) {
				drop[m] = true
			}
		}
	}

	mods = make([]string, 0, len(currentModIDs))
	for _, m := range currentModIDs {
		if drop[m] {
			removed++
			continue
		}
		mods = append(mods, m)
	}

	workshopIDs = make([]string, 0, len(currentWorkshopIDs))
	for _, id := range currentWorkshopIDs {
		if !slices.Contains(selected, id) {
			workshopIDs = append(workshopIDs, id)
		}
	}
	return mods, workshopIDs, removed
}
