// Package driving defines the entry-point contracts of the catalog core:
// the updater, the submission checker, the submitter and the dispatcher.
package driving
