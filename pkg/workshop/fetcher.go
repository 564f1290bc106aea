package workshop

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pzmod/pkg/observability"
	"github.com/matzehuels/pzmod/pkg/steam"
)

// ChunkSize is the maximum number of IDs sent in one details request.
const ChunkSize = 10

// DetailsClient is the remote side of a Fetcher. *steam.Client satisfies it.
type DetailsClient interface {
	GetDetails(ctx context.Context, ids []string) ([]steam.PublishedFile, error)
}

// Fetcher resolves workshop IDs to ModEntry records, consulting the cache
// before going to the network.
type Fetcher struct {
	client DetailsClient
	cache  *Cache
}

// NewFetcher creates a Fetcher. A nil cache gets a fresh private one.
func NewFetcher(client DetailsClient, cache *Cache) *Fetcher {
	if cache == nil {
		cache = NewCache()
	}
	return &Fetcher{client: client, cache: cache}
}

// Cache returns the cache backing f.
func (f *Fetcher) Cache() *Cache { return f.cache }

// GetDetails returns the entries for ids.
//
// IDs are split into chunks of ChunkSize which are resolved concurrently.
// Within a chunk, entries that were already known are returned before the
// freshly fetched ones. IDs the service does not know are omitted. The first
// chunk error cancels the rest and is returned.
func (f *Fetcher) GetDetails(ctx context.Context, ids []string) ([]ModEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	chunks := chunk(ids, ChunkSize)
	results := make([][]ModEntry, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			entries, err := f.fetchChunk(gctx, c)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []ModEntry
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// GetWithChildren fetches the entries for ids and then the entries of all
// their direct dependencies.
func (f *Fetcher) GetWithChildren(ctx context.Context, ids []string) (items, children []ModEntry, err error) {
	items, err = f.GetDetails(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	children, err = f.GetDetails(ctx, ChildIDs(items))
	if err != nil {
		return nil, nil, err
	}
	return items, children, nil
}

func (f *Fetcher) fetchChunk(ctx context.Context, ids []string) ([]ModEntry, error) {
	cl := f.cache.claim(ctx, ids)

	fresh := make(map[string]ModEntry)
	if len(cl.fetch) > 0 {
		entries, err := f.fetchRemote(ctx, cl.fetch)
		f.cache.release(cl.fetch, entries)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			fresh[e.WorkshopID] = e
		}
	}

	for _, ch := range cl.wait {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := make([]ModEntry, 0, len(ids))
	for _, id := range ids {
		if cl.owned[id] {
			continue
		}
		if e, ok := f.cache.Get(id); ok {
			out = append(out, e)
		}
	}
	for _, id := range ids {
		if !cl.owned[id] {
			continue
		}
		if e, ok := fresh[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, ids []string) (entries []ModEntry, err error) {
	hooks := observability.Fetch()
	hooks.OnChunkStart(ctx, len(ids))
	start := time.Now()
	defer func() {
		hooks.OnChunkComplete(ctx, len(ids), len(entries), time.Since(start), err)
	}()

	files, err := f.client.GetDetails(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if file.Result != steam.ResultOK {
			continue
		}
		entries = append(entries, FromPublishedFile(file))
	}
	return entries, nil
}

func chunk[T any](s []T, size int) [][]T {
	var out [][]T
	for size < len(s) {
		out = append(out, s[:size:size])
		s = s[size:]
	}
	return append(out, s)
}
