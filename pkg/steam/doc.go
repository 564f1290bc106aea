// Package steam is a minimal client for the Steam Web API endpoint that
// describes workshop items: IPublishedFileService/GetDetails.
//
// # Usage
//
//	client := steam.NewClient(apiKey)
//	files, err := client.GetDetails(ctx, []string{"2392709985", "2169435993"})
//
// A request asks for tags and children (direct dependencies) of every ID.
// The client handles:
//   - URL construction (key, includetags, includechildren, publishedfileids[i])
//   - Transport retries for network failures and 5xx responses, via
//     [httputil.Retry]
//   - Status and envelope validation, reported as FETCH_ERROR
//
// Items the service does not know are still returned, with Result != [ResultOK].
// Turning them into domain values and caching them is the job of the
// workshop package.
//
// [httputil.Retry]: github.com/matzehuels/pzmod/pkg/httputil.Retry
package steam
