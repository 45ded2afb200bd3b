package cli

import (
	"encoding/json"
	"fmt"

	"github.com/bioforensics/yeat/pkg/version"

	"github.com/spf13/cobra"
)

func (a *app) newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !asJSON {
				fmt.Fprint(out, version.Long())
				return nil
			}
			data, err := json.MarshalIndent(version.Info(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}
