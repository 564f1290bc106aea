package workshop

import (
	"context"
	"slices"
	"testing"

	"github.com/matzehuels/pzmod/pkg/errors"
	"github.com/matzehuels/pzmod/pkg/steam"
)

func TestExpandCollection(t *testing.T) {
	client := &fakeClient{
		children: map[string][]string{
			"c1": {"a", "c2", "b", "gone", "guide"},
			"c2": {"b", "c", "c1"},
		},
		types: map[string]int{
			"c1":    steam.FileTypeCollection,
			"c2":    steam.FileTypeCollection,
			"guide": 5,
		},
		missing: map[string]bool{"gone": true},
	}

	got, err := NewFetcher(client, nil).ExpandCollection(context.Background(), "c1")
	if err != nil {
		t.Fatalf("ExpandCollection failed: %v", err)
	}
	if want := []string{"a", "b", "c"}; !slices.Equal(workshopIDs(got), want) {
		t.Errorf("got %v, want %v", workshopIDs(got), want)
	}
}

func TestExpandCollection_Errors(t *testing.T) {
	client := &fakeClient{missing: map[string]bool{"gone": true}}
	f := NewFetcher(client, nil)

	if _, err := f.ExpandCollection(context.Background(), "gone"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("missing: err = %v", err)
	}
	if _, err := f.ExpandCollection(context.Background(), "plain"); !errors.Is(err, errors.ErrCodeNotAMod) {
		t.Errorf("not a collection: err = %v", err)
	}
}
