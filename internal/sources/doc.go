// Package sources retrieves launch records from the configured upstream.
//
// Every source implements LaunchFetcher and decodes the same wire format: a
// JSON array of snake_case launch objects.
//
// Current implementations:
//   - APIFetcher: one HTTP GET against the upstream launch API, run through
//     the HTTP resilience pipeline. 408, 429, 5xx and transport failures are
//     retried; other statuses fail immediately.
//   - FileFetcher: reads a local JSON file, for air-gapped seeding and tests.
//   - GitFetcher: shallow-clones a repository into memory and reads the
//     launch file from HEAD.
//
// NewFetcher picks the implementation from the source configuration.
package sources
