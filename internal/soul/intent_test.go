package soul

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTool(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"ls", "ls"},
		{" SHELL ", "shell"},
		{"see_activ", "see_active"},    // model truncation
		{"the_shell_tool", "shell"},    // whitelist name inside the guess
		{"stat", "stats"},
		{"wizard", "stats"},            // nothing matches, harmless default
		{"", "stats"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeTool(tc.in), "input %q", tc.in)
	}
}

func TestFallbackSingleIntent(t *testing.T) {
	actions := fallbackActions(
		"I should check what is running on the machine, the processes matter here.",
		"what processes are running")

	require.Len(t, actions, 1)
	assert.Equal(t, Action{Tool: "proc_list", Cmd: ""}, actions[0])
}

func TestFallbackListFilesExtractsPath(t *testing.T) {
	actions := fallbackActions(
		"The user wants me to list files somewhere.",
		"list files in /tmp")

	require.Len(t, actions, 1)
	assert.Equal(t, Action{Tool: "ls", Cmd: "/tmp"}, actions[0])
}

func TestFallbackListFilesDefaultsToDot(t *testing.T) {
	actions := fallbackActions("I will list files now.", "list files")

	require.Len(t, actions, 1)
	assert.Equal(t, Action{Tool: "ls", Cmd: "."}, actions[0])
}

func TestFallbackSearchStripsVerbs(t *testing.T) {
	actions := fallbackActions(
		"A web search is needed here.",
		"search the latest go release")

	require.Len(t, actions, 1)
	assert.Equal(t, "net", actions[0].Tool)
	assert.Equal(t, "latest go release", actions[0].Cmd)
}

func TestFallbackMultipleIntents(t *testing.T) {
	actions := fallbackActions(
		"I need the battery state and then I will search the web for chargers.",
		"check battery and search for chargers")

	require.Len(t, actions, 2)
	assert.Equal(t, "net", actions[0].Tool) // toolMap order, net before physical
	assert.Equal(t, "physical", actions[1].Tool)
	assert.Equal(t, "", actions[1].Cmd)
}

func TestFallbackNoIntent(t *testing.T) {
	actions := fallbackActions("I have nothing useful to add.", "hello there")
	assert.Empty(t, actions)
}
