package cmd

import (
	"runtime/debug"
	"testing"
)

func TestBuildVersion(t *testing.T) {
	original, originalRead := version, readBuildInfo
	t.Cleanup(func() { version, readBuildInfo = original, originalRead })

	tests := []struct {
		name   string
		set    string
		module string
		want   string
	}{
		{name: "set at build", set: "1.4.0", module: "v1.3.0", want: "1.4.0"},
		{name: "module version", set: "unknown", module: "v1.3.0", want: "v1.3.0"},
		{name: "devel build", set: "unknown", module: "(devel)", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version = tt.set
			readBuildInfo = func() (*debug.BuildInfo, bool) {
				return &debug.BuildInfo{Main: debug.Module{Version: tt.module}}, true
			}
			if got := buildVersion(); got != tt.want {
				t.Fatalf("buildVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}
