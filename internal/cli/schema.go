// Package cli provides shared CLI utilities for claimpilot and claimpilotd.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// FlagSchema describes a single command flag for machine consumption.
type FlagSchema struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// CommandSchema describes a command and its subcommand tree.
type CommandSchema struct {
	Name        string          `json:"name"`
	Use         string          `json:"use,omitempty"`
	Description string          `json:"description,omitempty"`
	Long        string          `json:"long,omitempty"`
	Flags       []FlagSchema    `json:"flags,omitempty"`
	Subcommands []CommandSchema `json:"subcommands,omitempty"`
}

// GenerateSchema walks cmd and its visible subcommands into a CommandSchema.
func GenerateSchema(cmd *cobra.Command) CommandSchema {
	var flags []FlagSchema
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Name == "help-json" {
			return
		}
		_, required := cmd.Annotations[cobra.BashCompOneRequiredFlag]
		flags = append(flags, FlagSchema{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
			Description: f.Usage,
			Required:    required,
		})
	})

	schema := CommandSchema{
		Name:        cmd.Name(),
		Use:         cmd.Use,
		Description: cmd.Short,
		Long:        cmd.Long,
		Flags:       flags,
	}
	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" {
			continue
		}
		schema.Subcommands = append(schema.Subcommands, GenerateSchema(sub))
	}
	return schema
}

// PrintSchema writes cmd's schema as indented JSON and exits the process.
func PrintSchema(cmd *cobra.Command) {
	output, err := json.MarshalIndent(GenerateSchema(cmd), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
	os.Exit(0)
}

// AddHelpJSONFlag registers the --help-json flag on cmd.
func AddHelpJSONFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().Bool("help-json", false, "Output command schema as JSON")
}

// CheckHelpJSON scans os.Args for --help-json and, when present, prints the
// schema for the addressed subcommand and exits. Must run before
// cmd.Execute() so the flag wins over argument validation.
func CheckHelpJSON(rootCmd *cobra.Command) {
	for i, arg := range os.Args {
		if arg == "--help-json" {
			PrintSchema(resolveCommand(rootCmd, os.Args[1:i]))
		}
	}
}

// resolveCommand follows args down the subcommand tree as far as they match.
func resolveCommand(cmd *cobra.Command, args []string) *cobra.Command {
	if len(args) == 0 {
		return cmd
	}
	for _, sub := range cmd.Commands() {
		if sub.Name() == args[0] || sub.HasAlias(args[0]) {
			return resolveCommand(sub, args[1:])
		}
	}
	return cmd
}
