package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "strand", cmd.Use)
	assert.Contains(t, cmd.Long, "record streams")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"ids", "get", "history", "prune", "gate", "counters"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, "strand.yaml", configFlag.DefValue)
}

func TestGetCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	getCmd, _, err := cmd.Find([]string{"get"})
	require.NoError(t, err)

	latestFlag := getCmd.Flags().Lookup("latest")
	require.NotNil(t, latestFlag)
	assert.Equal(t, "false", latestFlag.DefValue)

	payloadFlag := getCmd.Flags().Lookup("payload")
	require.NotNil(t, payloadFlag)
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	historyCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	concernFlag := historyCmd.Flags().Lookup("concern")
	require.NotNil(t, concernFlag)
	assert.Equal(t, "", concernFlag.DefValue)
}

func TestPruneCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	pruneCmd, _, err := cmd.Find([]string{"prune"})
	require.NoError(t, err)

	require.NotNil(t, pruneCmd.Flags().Lookup("before-id"))
	require.NotNil(t, pruneCmd.Flags().Lookup("before"))
	require.NotNil(t, pruneCmd.Flags().Lookup("details"))
}

func TestGateSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, sub := range []string{"disable", "enable"} {
		subCmd, _, err := cmd.Find([]string{"gate", sub})
		require.NoError(t, err)
		assert.Equal(t, sub, subCmd.Name())
		require.NotNil(t, subCmd.Flags().Lookup("details"))
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "ids"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
