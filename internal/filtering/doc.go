// Package filtering narrows a fetched launch list before it is stored.
//
// Two filters are applied in order and a launch must pass both:
//
//   - Name filter: glob patterns (github.com/gobwas/glob) matched against the
//     launch name. Exclude patterns take precedence over include patterns; with
//     no include patterns every launch not excluded passes.
//   - Outcome filter: keeps launches whose three-state outcome (success,
//     failure, unknown) is listed. An empty list keeps every outcome.
//
// Example configuration:
//
//	filter:
//	  names:
//	    include: ["Starlink*", "CRS-*"]
//	    exclude: ["*Rideshare*"]
//	  outcomes: [success, unknown]
//
// Filtering happens inside the sync cycle, so launches that stop matching are
// no longer refreshed but are never deleted from the store.
package filtering
