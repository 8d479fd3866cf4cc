package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Mr-Dark-debug/areo/internal/layers"
	"github.com/Mr-Dark-debug/areo/pkg/jsonutil"
)

// layersCommand prints the layer list the viewer starts with.
func (c *CLI) layersCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "layers",
		Short: "List the configured imagery layers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			reg, err := cfg.NewRegistry()
			if err != nil {
				return err
			}
			if asJSON {
				return jsonutil.Encode(cmd.OutOrStdout(), reg.Layers())
			}
			fmt.Fprintln(cmd.OutOrStdout(), layerTable(reg.Layers()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func layerTable(descs []layers.Descriptor) string {
	rows := make([][]string, 0, len(descs))
	for _, d := range descs {
		visible := "no"
		if d.Visible {
			visible = "yes"
		}
		source := d.SourceURL
		if source == "" {
			source = "-"
		}
		rows = append(rows, []string{
			d.ID, d.Name, string(d.Kind), visible,
			fmt.Sprintf("%.2f", d.Opacity), source,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Kind", "Visible", "Opacity", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return s.Inherit(styleHeader)
			case col == 5:
				return s.Foreground(colorDim)
			}
			return s
		}).
		String()
}
