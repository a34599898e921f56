package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Metadata(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.Equal(t, "Show the ansa version", versionCmd.Short)
}

func TestVersionCmd_PrintsBuildVersion(t *testing.T) {
	original := version
	version = "1.2.3-test"
	defer func() { version = original }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "ansa version 1.2.3-test\n", buf.String())
}

func TestVersionCmd_DefaultsToDev(t *testing.T) {
	original := version
	version = "dev"
	defer func() { version = original }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "ansa version dev")
}
