package modlist

import (
	"slices"
	"testing"

	"github.com/matzehuels/pzmod/pkg/serverconfig"
	"github.com/matzehuels/pzmod/pkg/workshop"
)

func TestSplitJoin(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a;;b;", []string{"a", "b"}},
		{";a;b", []string{"a", "b"}},
		{"Hydrocraft;tsarslib", []string{"Hydrocraft", "tsarslib"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Split(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Split(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := Split(Join(got)); !slices.Equal(again, got) {
				t.Errorf("Split(Join()) = %q, want %q", again, got)
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	doc, err := serverconfig.Parse("PublicName=x\nMods=a;;b;\nWorkshopItems=\n")
	if err != nil {
		t.Fatal(err)
	}
	if got := Get(doc, serverconfig.KeyMods); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Get(Mods) = %q", got)
	}
	if got := Get(doc, serverconfig.KeyWorkshopItems); len(got) != 0 {
		t.Errorf("Get(WorkshopItems) = %q", got)
	}

	Set(doc, serverconfig.KeyWorkshopItems, []string{"1", "2"})
	if got := doc.GetString(serverconfig.KeyWorkshopItems); got != "1;2" {
		t.Errorf("WorkshopItems = %q", got)
	}
	if keys := doc.Keys(); keys[2] != serverconfig.KeyWorkshopItems {
		t.Errorf("Set moved the key: %v", keys)
	}
}

func TestAddModIDs(t *testing.T) {
	tests := []struct {
		name    string
		current []string
		newIDs  []string
		anchor  Anchor
		want    []string
	}{
		{"after", []string{"x", "y"}, []string{"z"}, After("x"), []string{"x", "z", "y"}},
		{"after last", []string{"x", "y"}, []string{"z"}, After("y"), []string{"x", "y", "z"}},
		{"after first occurrence", []string{"x", "y", "x"}, []string{"z"}, After("x"), []string{"x", "z", "y", "x"}},
		{"after missing", []string{"a", "b"}, []string{"n"}, After("ghost"), []string{"n", "a", "b"}},
		{"start", []string{"a", "b"}, []string{"n"}, Start(), []string{"n", "a", "b"}},
		{"end", []string{"a", "b"}, []string{"n"}, End(), []string{"a", "b", "n"}},
		{"into empty", nil, []string{"n", "m"}, End(), []string{"n", "m"}},
		{"nothing new", []string{"a"}, nil, Start(), []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := slices.Clone(tt.current)
			got := AddModIDs(tt.current, tt.newIDs, tt.anchor)
			if !slices.Equal(got, tt.want) {
				t.Errorf("AddModIDs() = %q, want %q", got, tt.want)
			}
			if !slices.Equal(tt.current, before) {
				t.Errorf("input mutated: %q", tt.current)
			}
		})
	}
}

func TestAddItem_StripsStaleIDs(t *testing.T) {
	item := workshop.ModEntry{WorkshopID: "1", ModIDs: []string{"m1", "m2"}}
	got := AddItem([]string{"m1", "other"}, []string{"m2"}, item, End())
	if want := []string{"other", "m2"}; !slices.Equal(got, want) {
		t.Errorf("AddItem() = %q, want %q", got, want)
	}

	got = AddItem([]string{"a", "m2", "b"}, []string{"m1", "m2"}, item, After("b"))
	if want := []string{"a", "b", "m1", "m2"}; !slices.Equal(got, want) {
		t.Errorf("AddItem() = %q, want %q", got, want)
	}
}

func TestAddWorkshopID(t *testing.T) {
	current := []string{"1", "2"}
	if got := AddWorkshopID(current, "2"); !slices.Equal(got, current) {
		t.Errorf("duplicate added: %q", got)
	}
	got := AddWorkshopID(current, "3")
	if !slices.Equal(got, []string{"1", "2", "3"}) {
		t.Errorf("AddWorkshopID() = %q", got)
	}
	if len(current) != 2 {
		t.Error("input mutated")
	}
}

func TestAnchorChoices(t *testing.T) {
	item := workshop.ModEntry{ModIDs: []string{"m1"}}
	got := AnchorChoices([]string{"a", "m1", "b"}, item)
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("AnchorChoices() = %q", got)
	}
}

func TestAnchorString(t *testing.T) {
	for a, want := range map[Anchor]string{Start(): "start", End(): "end", After("x"): "after x"} {
		if a.String() != want {
			t.Errorf("String() = %q, want %q", a.String(), want)
		}
	}
}

func TestRemoveWorkshopItems(t *testing.T) {
	items := []workshop.ModEntry{
		{WorkshopID: "1", ModIDs: []string{"a", "b"}},
		{WorkshopID: "2", ModIDs: []string{"c"}},
		{WorkshopID: "3", ModIDs: []string{"d", "unused"}},
	}
	mods := []string{"a", "c", "d", "b", "manual"}
	ids := []string{"1", "2", "3"}

	gotMods, gotIDs, removed := RemoveWorkshopItems(items, []string{"1", "3"}, mods, ids)
	if want := []string{"c", "manual"}; !slices.Equal(gotMods, want) {
		t.Errorf("mods = %q, want %q", gotMods, want)
	}
	if want := []string{"2"}; !slices.Equal(gotIDs, want) {
		t.Errorf("workshop IDs = %q, want %q", gotIDs, want)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	if len(mods) != 5 || len(ids) != 3 {
		t.Error("inputs mutated")
	}
}

func TestRemoveWorkshopItems_UnknownSelection(t *testing.T) {
	mods, ids, removed := RemoveWorkshopItems(nil, []string{"9"}, []string{"a"}, []string{"9", "1"})
	if !slices.Equal(mods, []string{"a"}) || !slices.Equal(ids, []string{"1"}) || removed != 0 {
		t.Errorf("got %q %q %d", mods, ids, removed)
	}
}
