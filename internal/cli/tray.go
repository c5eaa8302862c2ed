package cli

import (
	"github.com/spf13/cobra"
)

var trayCmd = &cobra.Command{
	Use:   "tray",
	Short: "List the token types available in the tray",
	Long: `List the tray catalog. The built-in catalog is used unless tray.file points
at a TOML, YAML or JSON file with a "slots" list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		catalog, err := e.catalog()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, catalog.Slots())
		}

		PrintSection(out, "Tray ("+PrintCount(catalog.Len(), "slot", "slots")+")")
		rows := make([][]string, 0, catalog.Len())
		for _, s := range catalog.Slots() {
			rows = append(rows, []string{s.TypeID, string(s.Kind), s.IconRef})
		}
		PrintTable(out, []string{"TYPE", "KIND", "ICON"}, rows)
		return nil
	},
}
