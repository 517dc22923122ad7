// Package driven defines the interfaces the core services depend on:
// storage, the remote hosting API, the task queue, the search index,
// configuration and rendering. Adapters implement them.
package driven
