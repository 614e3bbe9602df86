// Package config reads the run worker's environment. The worker has no
// config file of its own -- everything it needs at startup comes from a
// small set of environment variables, so this package is a thin,
// explicit accessor layer rather than a generic loader.
package config

import "os"

const (
	envBuildManifestPath = "TRIGGER_BUILD_MANIFEST_PATH"
	envGRPCAddress       = "TRIGGER_GRPC_ADDRESS"
	envTraceParent       = "TRACEPARENT"
)

const defaultBuildManifestPath = "./build-manifest.json"

// Config holds the worker's environment-derived settings.
type Config struct {
	// BuildManifestPath locates the build manifest the indexer reads to
	// discover registered tasks.
	BuildManifestPath string
	// GRPCAddress is the RPC transport endpoint, either "unix:/path" or
	// "host:port". Empty means the worker should use the stdio transport.
	GRPCAddress string
	// TraceParent carries the W3C trace-context header to continue, if
	// the parent process started one.
	TraceParent string
}

// FromEnv reads Config from the process environment, applying
// TRIGGER_BUILD_MANIFEST_PATH's documented default when unset.
func FromEnv() Config {
	manifestPath := os.Getenv(envBuildManifestPath)
	if manifestPath == "" {
		manifestPath = defaultBuildManifestPath
	}
	return Config{
		BuildManifestPath: manifestPath,
		GRPCAddress:       os.Getenv(envGRPCAddress),
		TraceParent:       os.Getenv(envTraceParent),
	}
}
