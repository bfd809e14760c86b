package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfind/dfind/pkg/version"
)

func TestVersionCmd_DefaultOutput(t *testing.T) {
	// Given: a version command

	// When: executing without flags
	out, err := runCommand(t, newVersionCmd())

	// Then: it should output the full version string
	require.NoError(t, err)
	assert.Contains(t, out, "dfind")
	assert.Contains(t, out, version.Version)
	assert.Contains(t, out, "commit")
}

func TestVersionCmd_ShortOutput(t *testing.T) {
	// When: executing with --short
	out, err := runCommand(t, newVersionCmd(), "--short")

	// Then: it should output only the version number
	require.NoError(t, err)
	assert.Equal(t, version.Version, strings.TrimSpace(out))
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	// When: executing with --json
	out, err := runCommand(t, newVersionCmd(), "--json")

	// Then: it should output valid JSON with all fields
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))

	assert.Equal(t, version.Version, info["version"])
	assert.Contains(t, info, "commit")
	assert.Contains(t, info, "date")
	assert.Contains(t, info, "go_version")
	assert.Contains(t, info, "os")
	assert.Contains(t, info, "arch")
}

func TestVersionCmd_ShortBeatsJSON(t *testing.T) {
	// When: both flags are set
	out, err := runCommand(t, newVersionCmd(), "--short", "--json")

	// Then: short output wins
	require.NoError(t, err)
	assert.Equal(t, version.Version, strings.TrimSpace(out))
}
