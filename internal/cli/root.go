package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func NewRootCommand(out io.Writer, build BuildInfo) *cobra.Command {
	globals := &globalOptions{}
	deps := commandDeps{out: out, build: build, globals: globals}

	cmd := &cobra.Command{
		Use:           "andei",
		Short:         "Por Onde Andei CLI",
		Long:          "Record and revisit the places you have been.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&globals.ConfigPath, "config", "", "Path to the TOML config file")
	flags.StringVar(&globals.DBPath, "db", "", "Path to the SQLite database file")
	flags.BoolVar(&globals.JSON, "json", false, "Print command output as JSON")

	cmd.AddCommand(newVersionCommand(deps))
	cmd.AddCommand(newRegisterCommand(deps))
	cmd.AddCommand(newLoginCommand(deps))
	cmd.AddCommand(newLogoutCommand(deps))
	cmd.AddCommand(newWhoamiCommand(deps))
	cmd.AddCommand(newProfileCommand(deps))
	cmd.AddCommand(newBiometricCommand(deps))
	cmd.AddCommand(newPlaceCommand(deps))
	cmd.AddCommand(newActivityCommand(deps))
	cmd.AddCommand(newGeoCommand(deps))
	cmd.AddCommand(newDBCommand(deps))
	cmd.InitDefaultCompletionCmd()
	return cmd
}

func newVersionCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return usageErrorf("version does not accept positional arguments")
			}
			if deps.globals.JSON {
				enc := json.NewEncoder(deps.out)
				enc.SetIndent("", "  ")
				return mapCommandError(enc.Encode(deps.build))
			}
			_, err := fmt.Fprintf(
				deps.out,
				"version=%s commit=%s build_time=%s\n",
				deps.build.Version,
				deps.build.Commit,
				deps.build.BuildTime,
			)
			return mapCommandError(err)
		},
	}
}
