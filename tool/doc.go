// Package tool defines the tool registry and dispatcher.
//
// The package is split by concern:
//   - type_system: ordered parameter schemas, declaration checks and argument validation
//   - registry: named tool definitions built once at startup
//   - dispatcher: lookup, validation and handler invocation
//   - error: the ToolError taxonomy shared by handlers and transports
//   - observability: per-invocation observer hooks
//
// The package knows nothing about MCP or HTTP so transports and handlers can
// evolve independently.
package tool
