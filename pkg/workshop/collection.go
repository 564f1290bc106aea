package workshop

import (
	"context"

	"github.com/matzehuels/pzmod/pkg/errors"
)

// ExpandCollection resolves a workshop collection to the mod items it
// contains. Nested collections are expanded in place; each item appears once,
// at its first position. Children that are neither mods nor collections are
// skipped.
//
// Returns NOT_A_MOD if id is not a collection and INVALID_INPUT if it does
// not exist.
func (f *Fetcher) ExpandCollection(ctx context.Context, id string) ([]ModEntry, error) {
	root, err := f.GetDetails(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(root) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "workshop item %s not found", id)
	}
	if !root[0].IsCollection() {
		return nil, errors.New(errors.ErrCodeNotAMod, "%s is not a collection", root[0])
	}

	seen := map[string]bool{id: true}
	return f.expand(ctx, root[0], seen)
}

func (f *Fetcher) expand(ctx context.Context, coll ModEntry, seen map[string]bool) ([]ModEntry, error) {
	children, err := f.GetDetails(ctx, coll.Children)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]ModEntry, len(children))
	for _, c := range children {
		byID[c.WorkshopID] = c
	}

	var out []ModEntry
	for _, cid := range coll.Children {
		child, ok := byID[cid]
		if !ok || seen[cid] {
			continue
		}
		seen[cid] = true
		switch {
		case child.IsMod():
			out = append(out, child)
		case child.IsCollection():
			nested, err := f.expand(ctx, child, seen)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
	}
	return out, nil
}
