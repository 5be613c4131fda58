// Package core provides the business logic for CSV coordinate reprojection.
//
// This package is independent of any UI or transport layer. It can be used by
// the web handlers, the command-line tool, or tests without modification.
//
// # Reprojection
//
// [Reproject] walks an in-memory [Table] and, for every row that has both
// selected coordinate fields, normalizes the two values (decimal or DMS text,
// see package coord), calls the supplied [TransformFunc], and appends two
// derived columns named "{field}_{outputCRS}" holding the result with six
// fractional digits. Rows missing either field pass through untouched.
//
// Output is all-or-nothing:
//
//   - A value that does not parse stops the batch at once with an
//     [InvalidCoordinateError] naming the 1-based row.
//   - A transform that yields a non-finite result is remembered and the scan
//     continues; after the last row an [OutOfDomainError] is returned for the
//     last offending row.
//
// # Service
//
// [Service] wraps the pure transform with the operational concerns of a
// conversion: request validation, a concurrency limiter, CRS resolution
// through a [CRSResolver], timeouts, and history recording.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - SEL001, REQ001: Request errors (field selection, missing inputs)
//   - CRS001-CRS002: Coordinate reference system errors
//   - COORD001-COORD002: Coordinate value errors
//   - FILE001-FILE005: File errors (size, encoding, format)
//   - CONV001-CONV003: Conversion errors (busy, cancelled, timeout)
//   - HIST001-HIST002: History errors
package core
