package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures across layers. The HTTP controller maps
// them to status codes; callers check them with goerr.HasTag.
var (
	// TagInvalidArgument marks malformed caller input (empty query,
	// out-of-range top_k). Never retried.
	TagInvalidArgument = goerr.NewTag("invalid_argument")

	// TagNotFound marks lookups of unknown resources (rebuild task IDs,
	// sessions).
	TagNotFound = goerr.NewTag("not_found")

	// TagSourceNotFound marks a missing documents snapshot or index at
	// load time. Fatal to engine construction.
	TagSourceNotFound = goerr.NewTag("source_not_found")

	// TagIndexIncompatible marks an embedding dimension or provider
	// mismatch between a loaded index and the configured embedding
	// client. Raised before any query is served against the index.
	TagIndexIncompatible = goerr.NewTag("index_incompatible")

	// TagProvider marks failures of the embedding/generation backend.
	TagProvider = goerr.NewTag("provider")

	// TagProviderTimeout marks a provider call that exceeded its
	// configured deadline.
	TagProviderTimeout = goerr.NewTag("provider_timeout")

	// TagConflict marks operations rejected because another instance of
	// the same operation is still running (overlapping rebuilds).
	TagConflict = goerr.NewTag("conflict")

	// TagRebuild marks any failure during index construction. The
	// previous index generation remains authoritative.
	TagRebuild = goerr.NewTag("rebuild")
)
