// Package integration holds end-to-end tests that exercise the repository,
// relocation, file watching and the MCP server together on real files.
package integration
