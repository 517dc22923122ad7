// Package domain contains the core types of the extension catalog:
// repositories, releases, manifests, ingestion tasks, and the errors the
// services raise. It has no dependencies on storage or transport.
package domain
