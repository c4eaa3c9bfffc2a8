package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_SkipsServices(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.Equal(t, "true", versionCmd.Annotations[skipServices])
}

func TestVersionCmd_Output(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{"release", "1.4.0"},
		{"dev", "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := version
			version = tt.version
			defer func() { version = original }()

			out, err := execute(t, "", "version")

			require.NoError(t, err)
			assert.Contains(t, out, "catalog version "+tt.version+"\n")
			assert.Contains(t, out, "schema version 2\n")
			assert.Contains(t, out, runtime.Version())
		})
	}
}
