// Package services defines shared utilities consumed by the extraction
// pipeline and the HTTP serving layer.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation ids, ad identifiers, and
//     media modality for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP response categories (415 vs 400 vs 500 vs 504).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across feature groups.
package services
