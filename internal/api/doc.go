// Package api defines the transport DTOs shared by the REST server and the
// CLI, plus converters from internal catalog types. Keeping the DTO layer
// separate means the store schema can evolve without breaking API consumers.
package api
