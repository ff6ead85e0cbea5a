package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema(t *testing.T) {
	root := &cobra.Command{Use: "claimpilot", Short: "Claim decision CLI"}
	AddHelpJSONFlag(root)

	query := &cobra.Command{Use: "query <text>", Short: "Run a claim query"}
	query.Flags().IntP("top-k", "k", 0, "Number of clauses to retrieve")
	root.AddCommand(query)

	hidden := &cobra.Command{Use: "debug", Hidden: true}
	root.AddCommand(hidden)

	schema := GenerateSchema(root)

	assert.Equal(t, "claimpilot", schema.Name)
	require.Len(t, schema.Subcommands, 1, "hidden commands stay out of the schema")
	sub := schema.Subcommands[0]
	assert.Equal(t, "query", sub.Name)
	require.Len(t, sub.Flags, 1)
	assert.Equal(t, "top-k", sub.Flags[0].Name)
	assert.Equal(t, "k", sub.Flags[0].Shorthand)
	assert.Equal(t, "int", sub.Flags[0].Type)
}

func TestGenerateSchema_OmitsHelpFlags(t *testing.T) {
	root := &cobra.Command{Use: "claimpilot"}
	AddHelpJSONFlag(root)
	root.InitDefaultHelpFlag()

	schema := GenerateSchema(root)
	for _, f := range schema.Flags {
		assert.NotContains(t, []string{"help", "help-json"}, f.Name)
	}
}

func TestResolveCommand(t *testing.T) {
	root := &cobra.Command{Use: "claimpilot"}
	analytics := &cobra.Command{Use: "analytics"}
	reset := &cobra.Command{Use: "reset"}
	analytics.AddCommand(reset)
	root.AddCommand(analytics)

	assert.Same(t, root, resolveCommand(root, nil))
	assert.Same(t, analytics, resolveCommand(root, []string{"analytics"}))
	assert.Same(t, reset, resolveCommand(root, []string{"analytics", "reset"}))
	assert.Same(t, root, resolveCommand(root, []string{"unknown"}))
}
