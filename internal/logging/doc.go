// Package logging centralizes slog construction for the extraction service.
//
// It provides a console handler for interactive use, a JSON handler for
// machine-readable output, attr helper aliases, and context helpers that stamp
// request ids, ad ids, and modality onto log records.
package logging
