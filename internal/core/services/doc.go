// Package services implements the driving port interfaces.
// Services contain the ingestion, checking, submission and dispatch
// logic and orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no CGO or external dependencies beyond the
// retry backoff used by the dispatcher.
package services
