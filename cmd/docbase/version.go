package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docbase.evalgo.org/version"
)

func newVersionCmd() *cobra.Command {
	var dep string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "print build and dependency version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			var out []byte
			var err error

			if dep != "" {
				info := version.GetDependency(dep)
				if info == nil {
					return fmt.Errorf("dependency %q not found in build info", dep)
				}
				out, err = json.MarshalIndent(info, "", "  ")
			} else {
				out, err = json.MarshalIndent(map[string]any{
					"docbaseVersion": version.GetDocbaseVersion(),
					"buildInfo":      version.GetBuildInfo(),
				}, "", "  ")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&dep, "dep", "", "print version info for a single dependency module path")
	return cmd
}
