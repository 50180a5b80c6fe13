package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datastat-cli/internal/render"
	"github.com/KaramelBytes/datastat-cli/internal/utils"
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "List the columns of a file with their inferred kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadTable(cmd, args[0])
		if err != nil {
			return err
		}
		defer ds.Release()

		out := cmd.OutOrStdout()
		switch format := settings().OutputFormat; format {
		case render.FormatJSON:
			b, err := utils.PrettyJSON(render.Describe(ds.Table))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "%s\n", b)
			return err
		case render.FormatYAML:
			b, err := yaml.Marshal(render.Describe(ds.Table))
			if err != nil {
				return fmt.Errorf("marshal yaml: %w", err)
			}
			_, err = out.Write(b)
			return err
		case "", render.FormatText:
			return render.Schema(out, ds.Table)
		default:
			return fmt.Errorf("unsupported format %q", format)
		}
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
