// Package domain models family-event listings aggregated from independent
// sources, and the enrichment that turns them into something worth notifying
// a subscriber about.
//
// # Data Sources
//
// Listings arrive as RawEventRecord values from source adapters, one adapter
// per upstream origin (library event calendars, weekend-activity roundups,
// and similar). Every field except provider and title is free text in
// whatever shape the source uses: "Saturday, May 4" is a perfectly normal
// date, "10:30 AM - 12:00 PM" or "All day" a perfectly normal time. The
// adapters do no interpretation; everything downstream has to tolerate that.
//
// # Identity
//
// Events are keyed by a deterministic fingerprint: a short SHA-256 of
// title|date. Two records sharing both fields are the same event regardless
// of provider, which is how the same library story time scraped from two
// sources collapses into one entry. The flip side is accepted as a known
// tradeoff: two genuinely different events that coincidentally share a title
// and date collide, and one real event announced under slightly different
// titles does not. See [Fingerprint].
//
// # Address Handling
//
// Source locations range from full street addresses to bare venue names.
// Before geocoding, locations are normalized ("Third" → "3rd", "Ave." →
// "Ave") and scoped to the configured region by appending state and country
// tokens. A geocoder result is accepted only when its resolved address
// passes region validation: it must contain the required region tokens and
// none of the excluded ones. The exclusion list exists because ambiguous
// place names otherwise resolve into the wrong region entirely ("Washington"
// landing in the federal district rather than the state). On a miss, a
// fallback resolves just the last three address components, approximating
// city level, and as a last resort the configured region description;
// results obtained either way are flagged with is_estimated_address.
//
// # Weather
//
// Forecasts come from a provider speaking WMO weather codes, mapped to
// summaries by [WeatherDescription]. Forecast timestamps are UTC-anchored;
// local civil time is derived with the fixed US Pacific rule (daylight
// saving from the second Sunday of March 02:00 through the first Sunday of
// November 02:00, UTC-7 during DST and UTC-8 otherwise). See
// [PacificLocalTime].
//
// # Failure Policy
//
// Enrichment never fails a record. Geocode misses and weather errors
// downgrade to absent fields on the EnrichedEvent and are logged; only store
// I/O and authorization problems surface as errors, via the sentinels in
// errors.go.
package domain
