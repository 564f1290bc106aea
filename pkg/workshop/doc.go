// Package workshop turns Steam workshop records into [ModEntry] values and
// fetches them in cached, bounded batches.
//
// # Fetching
//
// [Fetcher.GetDetails] splits the requested IDs into chunks of at most
// [ChunkSize] IDs and resolves the chunks concurrently. Within a chunk, IDs
// found in the [Cache] are answered locally and the rest go out in a single
// remote request. Each chunk returns its already-known entries first and the
// freshly fetched ones after them; chunk results are concatenated in chunk
// order.
//
// # Caching
//
// [Cache] lives for the whole session and never expires entries: workshop
// metadata changes slowly compared to one CLI run. Construct one per session
// and share it by reference:
//
//	cache := workshop.NewCache()
//	fetcher := workshop.NewFetcher(steam.NewClient(apiKey), cache)
//	items, err := fetcher.GetDetails(ctx, workshopIDs)
//
// The cache is safe for concurrent chunks: an ID that one chunk is already
// fetching is awaited by the others instead of being requested twice.
//
// # Mod IDs
//
// A workshop item declares the mod IDs it ships in its description, one per
// line, as "Mod ID: <value>". [ParseModIDs] extracts them.
package workshop
