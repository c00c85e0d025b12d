// Package dumpling implements the Dumpling AI tools.
//
// Every tool is a Proxy: a parameter struct, a schema, an optional
// cross-field precondition and a projection of the upstream response. The
// catalog binds all proxies to one Client.
package dumpling

// EnvAPIKey names the environment variable holding the API key.
const EnvAPIKey = "DUMPLING_API_KEY"
