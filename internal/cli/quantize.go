package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ttbud/ttbud-sub001/internal/config"
	"github.com/ttbud/ttbud-sub001/internal/grid"
)

var quantizeCellSize int

var quantizeCmd = &cobra.Command{
	Use:   "quantize <x> <y>",
	Short: "Show where a pixel position snaps to",
	Long: `Snap a raw pixel position to the nearest grid cell, the same way a drop
on the board does. The cell size comes from configuration unless --cell-size
is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid x %q: %w", args[0], err)
		}
		y, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid y %q: %w", args[1], err)
		}

		cellSize := quantizeCellSize
		if cellSize == 0 {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cellSize = cfg.Grid.CellSize
		}
		q, err := grid.New(cellSize)
		if err != nil {
			return err
		}

		pos := q.Quantize(grid.Point{X: x, Y: y})
		col, row := q.Cell(pos)

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, map[string]int{
				"x":         pos.X,
				"y":         pos.Y,
				"col":       col,
				"row":       row,
				"cell_size": cellSize,
			})
		}
		PrintLabelValue(out, "Position", pos.String())
		PrintLabelValue(out, "Cell", fmt.Sprintf("col %d, row %d", col, row))
		PrintLabelValue(out, "Cell size", strconv.Itoa(cellSize))
		return nil
	},
}

func init() {
	quantizeCmd.Flags().IntVar(&quantizeCellSize, "cell-size", 0, "Grid cell size in pixels (default from config)")
}
