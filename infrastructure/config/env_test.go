package config

import "testing"

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv(envBuildManifestPath, "")
	t.Setenv(envGRPCAddress, "")
	t.Setenv(envTraceParent, "")

	cfg := FromEnv()
	if cfg.BuildManifestPath != defaultBuildManifestPath {
		t.Errorf("BuildManifestPath = %q, want %q", cfg.BuildManifestPath, defaultBuildManifestPath)
	}
	if cfg.GRPCAddress != "" {
		t.Errorf("GRPCAddress = %q, want empty", cfg.GRPCAddress)
	}
	if cfg.TraceParent != "" {
		t.Errorf("TraceParent = %q, want empty", cfg.TraceParent)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv(envBuildManifestPath, "/tmp/manifest.json")
	t.Setenv(envGRPCAddress, "unix:/tmp/worker.sock")
	t.Setenv(envTraceParent, "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01")

	cfg := FromEnv()
	if cfg.BuildManifestPath != "/tmp/manifest.json" {
		t.Errorf("BuildManifestPath = %q", cfg.BuildManifestPath)
	}
	if cfg.GRPCAddress != "unix:/tmp/worker.sock" {
		t.Errorf("GRPCAddress = %q", cfg.GRPCAddress)
	}
	if cfg.TraceParent != "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01" {
		t.Errorf("TraceParent = %q", cfg.TraceParent)
	}
}
