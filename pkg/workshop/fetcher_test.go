package workshop

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/matzehuels/pzmod/pkg/errors"
	"github.com/matzehuels/pzmod/pkg/observability"
	"github.com/matzehuels/pzmod/pkg/steam"
)

// fakeClient answers every ID with a published file unless it is listed in
// missing. Calls are recorded in order.
type fakeClient struct {
	mu       sync.Mutex
	calls    [][]string
	missing  map[string]bool
	children map[string][]string
	types    map[string]int
	err      error
	// block, when set, is consulted on the first call only.
	started chan struct{}
	block   chan struct{}
}

func (c *fakeClient) GetDetails(ctx context.Context, ids []string) ([]steam.PublishedFile, error) {
	c.mu.Lock()
	c.calls = append(c.calls, slices.Clone(ids))
	first := len(c.calls) == 1
	c.mu.Unlock()

	if first && c.block != nil {
		close(c.started)
		<-c.block
	}
	if c.err != nil {
		return nil, c.err
	}

	var files []steam.PublishedFile
	for _, id := range ids {
		if c.missing[id] {
			files = append(files, steam.PublishedFile{Result: 9, PublishedFileID: id})
			continue
		}
		f := steam.PublishedFile{
			Result:          steam.ResultOK,
			PublishedFileID: id,
			Title:           "Item " + id,
			Description:     "Mod ID: mod" + id,
			FileType:        c.types[id],
		}
		for _, child := range c.children[id] {
			f.Children = append(f.Children, steam.Child{PublishedFileID: child})
		}
		files = append(files, f)
	}
	return files, nil
}

func (c *fakeClient) requested() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []string
	for _, call := range c.calls {
		ids = append(ids, call...)
	}
	return ids
}

func workshopIDs(entries []ModEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.WorkshopID
	}
	return ids
}

func seq(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprint(1000 + i)
	}
	return ids
}

func TestGetDetails_Empty(t *testing.T) {
	client := &fakeClient{}
	got, err := NewFetcher(client, nil).GetDetails(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d entries, want 0", len(got))
	}
	if len(client.calls) != 0 {
		t.Errorf("made %d calls, want 0", len(client.calls))
	}
}

func TestGetDetails_Chunking(t *testing.T) {
	client := &fakeClient{}
	f := NewFetcher(client, NewCache())
	ids := seq(25)

	got, err := f.GetDetails(context.Background(), ids)
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if len(client.calls) != 3 {
		t.Fatalf("made %d calls, want 3", len(client.calls))
	}
	var sizes []int
	for _, call := range client.calls {
		sizes = append(sizes, len(call))
	}
	slices.Sort(sizes)
	if !slices.Equal(sizes, []int{5, 10, 10}) {
		t.Errorf("chunk sizes = %v, want [5 10 10]", sizes)
	}
	if !slices.Equal(workshopIDs(got), ids) {
		t.Errorf("order not preserved: %v", workshopIDs(got))
	}
	if f.Cache().Len() != 25 {
		t.Errorf("cache holds %d entries, want 25", f.Cache().Len())
	}
}

func TestGetDetails_CachedSubset(t *testing.T) {
	client := &fakeClient{}
	f := NewFetcher(client, nil)
	ids := seq(25)
	if _, err := f.GetDetails(context.Background(), ids); err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}

	before := len(client.calls)
	subset := []string{ids[3], ids[17], ids[0], ids[24]}
	got, err := f.GetDetails(context.Background(), subset)
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if len(client.calls) != before {
		t.Errorf("made %d new calls, want 0", len(client.calls)-before)
	}
	if !slices.Equal(workshopIDs(got), subset) {
		t.Errorf("got %v, want %v", workshopIDs(got), subset)
	}
}

func TestGetDetails_MixedChunkOrder(t *testing.T) {
	client := &fakeClient{}
	cache := NewCache()
	cache.Put(ModEntry{WorkshopID: "b", Title: "cached"})
	cache.Put(ModEntry{WorkshopID: "d", Title: "cached"})

	got, err := NewFetcher(client, cache).GetDetails(context.Background(), []string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if want := []string{"b", "d", "a", "c"}; !slices.Equal(workshopIDs(got), want) {
		t.Errorf("got %v, want %v", workshopIDs(got), want)
	}
	if got := client.requested(); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("requested %v, want [a c]", got)
	}
	if got[0].Title != "cached" {
		t.Errorf("cached entry replaced: %+v", got[0])
	}
}

func TestGetDetails_Duplicates(t *testing.T) {
	tests := []struct {
		name      string
		cached    []string
		ids       []string
		want      []string
		requested []string
	}{
		{"uncached", nil, []string{"a", "a", "b"}, []string{"a", "a", "b"}, []string{"a", "b"}},
		{"cached", []string{"a"}, []string{"a", "b", "a"}, []string{"a", "a", "b"}, []string{"b"}},
		{"all cached", []string{"a", "b"}, []string{"b", "a", "b"}, []string{"b", "a", "b"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			cache := NewCache()
			for _, id := range tt.cached {
				cache.Put(ModEntry{WorkshopID: id})
			}
			got, err := NewFetcher(client, cache).GetDetails(context.Background(), tt.ids)
			if err != nil {
				t.Fatalf("GetDetails failed: %v", err)
			}
			if !slices.Equal(workshopIDs(got), tt.want) {
				t.Errorf("got %v, want %v", workshopIDs(got), tt.want)
			}
			if !slices.Equal(client.requested(), tt.requested) {
				t.Errorf("requested %v, want %v", client.requested(), tt.requested)
			}
		})
	}
}

func TestGetDetails_NotFoundOmitted(t *testing.T) {
	client := &fakeClient{missing: map[string]bool{"gone": true}}
	f := NewFetcher(client, nil)

	got, err := f.GetDetails(context.Background(), []string{"a", "gone", "b"})
	if err != nil {
		t.Fatalf("GetDetails failed: %v", err)
	}
	if !slices.Equal(workshopIDs(got), []string{"a", "b"}) {
		t.Errorf("got %v, want [a b]", workshopIDs(got))
	}
	if _, ok := f.Cache().Get("gone"); ok {
		t.Error("missing item should not be cached")
	}
}

func TestGetDetails_ErrorLeavesCacheUntouched(t *testing.T) {
	client := &fakeClient{err: errors.New(errors.ErrCodeFetch, "failed to fetch workshop items: Bad Gateway")}
	f := NewFetcher(client, nil)

	_, err := f.GetDetails(context.Background(), []string{"a", "b"})
	if !errors.Is(err, errors.ErrCodeFetch) {
		t.Fatalf("err = %v, want FETCH_ERROR", err)
	}
	if f.Cache().Len() != 0 {
		t.Errorf("cache holds %d entries after failure", f.Cache().Len())
	}

	client.err = nil
	if _, err := f.GetDetails(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if got := client.requested(); len(got) != 4 {
		t.Errorf("requested %v, want both IDs requested twice", got)
	}
}

type waitHooks struct {
	observability.NoopCacheHooks
	waited chan string
}

func (h waitHooks) OnCacheWait(_ context.Context, id string) { h.waited <- id }

func TestGetDetails_OverlappingCallsFetchOnce(t *testing.T) {
	t.Cleanup(observability.Reset)
	hooks := waitHooks{waited: make(chan string, 1)}
	observability.SetCacheHooks(hooks)

	client := &fakeClient{started: make(chan struct{}), block: make(chan struct{})}
	f := NewFetcher(client, nil)
	ctx := context.Background()

	var first []ModEntry
	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		first, firstErr = f.GetDetails(ctx, []string{"1", "2"})
	}()
	<-client.started

	var second []ModEntry
	var secondErr error
	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		second, secondErr = f.GetDetails(ctx, []string{"2", "3"})
	}()

	if id := <-hooks.waited; id != "2" {
		t.Errorf("waited on %q, want 2", id)
	}
	close(client.block)
	<-done
	<-secondDone

	if firstErr != nil || secondErr != nil {
		t.Fatalf("errors: %v, %v", firstErr, secondErr)
	}
	if !slices.Equal(workshopIDs(first), []string{"1", "2"}) {
		t.Errorf("first = %v", workshopIDs(first))
	}
	if !slices.Equal(workshopIDs(second), []string{"2", "3"}) {
		t.Errorf("second = %v", workshopIDs(second))
	}

	counts := make(map[string]int)
	for _, id := range client.requested() {
		counts[id]++
	}
	for id, n := range counts {
		if n != 1 {
			t.Errorf("id %s requested %d times", id, n)
		}
	}
}

func TestGetWithChildren(t *testing.T) {
	client := &fakeClient{children: map[string][]string{
		"a": {"x"},
		"b": {"x", "y"},
	}}
	items, children, err := NewFetcher(client, nil).GetWithChildren(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("GetWithChildren failed: %v", err)
	}
	if !slices.Equal(workshopIDs(items), []string{"a", "b"}) {
		t.Errorf("items = %v", workshopIDs(items))
	}
	if !slices.Equal(workshopIDs(children), []string{"x", "x", "y"}) {
		t.Errorf("children = %v", workshopIDs(children))
	}
	if children[0].ModIDs[0] != "modx" {
		t.Errorf("child mod IDs = %v", children[0].ModIDs)
	}
}
