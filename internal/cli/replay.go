package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/event"
	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/hash"
	"github.com/ttbud/ttbud-sub001/internal/logging"
	"github.com/ttbud/ttbud-sub001/internal/reconcile"
)

var (
	replaySeed string
	replayOut  string
)

// replayResult summarizes a replayed event stream.
type replayResult struct {
	Events   int            `json:"events"`
	Invalid  int            `json:"invalid"`
	Outcomes map[string]int `json:"outcomes"`
	Tokens   []board.Token  `json:"tokens"`

	// Fingerprint matches between boards holding the same tokens.
	Fingerprint string `json:"fingerprint"`
}

var replayCmd = &cobra.Command{
	Use:   "replay <events.jsonl>",
	Short: "Apply a recorded event stream to a board",
	Long: `Read one JSON event per line and apply them in order, the same way a
session applies remote events. Malformed lines are skipped and counted.

Use - to read events from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		log := e.logger(cmd.ErrOrStderr())

		var seed []board.Token
		if replaySeed != "" {
			if seed, err = e.snapshots.Load(replaySeed); err != nil {
				return err
			}
		}

		in := cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open event log: %w", err)
			}
			defer f.Close()
			in = f
		}

		q, err := grid.New(e.cfg.Grid.CellSize)
		if err != nil {
			return err
		}
		result, err := replayEvents(in, q, seed, log)
		if err != nil {
			return err
		}

		if replayOut != "" {
			if err := e.snapshots.Save(replayOut, e.cfg.Board.ID, result.Tokens); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, result)
		}

		PrintSection(out, "Board ("+PrintCount(len(result.Tokens), "token", "tokens")+")")
		if len(result.Tokens) == 0 {
			PrintEmptyState(out, "No tokens on the board")
		}
		PrintTable(out, tokenHeaders, tokenRows(result.Tokens))

		PrintSection(out, "Events")
		PrintLabelValue(out, "Read", PrintCount(result.Events, "event", "events"))
		PrintLabelValue(out, "Fingerprint", hash.Short(result.Fingerprint))
		for _, outcome := range []reconcile.Outcome{reconcile.Applied, reconcile.Ignored, reconcile.Dropped} {
			if n := result.Outcomes[outcome.String()]; n > 0 {
				PrintLabelValue(out, outcome.String(), fmt.Sprint(n))
			}
		}
		if result.Invalid > 0 {
			PrintWarning(out, fmt.Sprintf("skipped %s", PrintCount(result.Invalid, "malformed line", "malformed lines")))
		}
		if replayOut != "" {
			PrintSuccess(out, "Saved snapshot to "+replayOut)
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replaySeed, "seed", "", "Snapshot to start from")
	replayCmd.Flags().StringVar(&replayOut, "out", "", "Write the resulting board to this snapshot")
}

// replayEvents applies every event in r to a board seeded with seed. Events
// are applied as remote events with no local gestures in flight.
func replayEvents(r io.Reader, q grid.Quantizer, seed []board.Token, log *logging.Logger) (replayResult, error) {
	store := board.NewStore(q)
	rec := reconcile.New(store, "", log)
	for _, err := range rec.Seed(seed) {
		log.Warn("skipping seed token", logging.Fields{"error": err.Error()})
	}

	result := replayResult{Outcomes: make(map[string]int)}
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		result.Events++

		ev, err := event.Decode(data)
		if err != nil {
			result.Invalid++
			log.Warn("skipping malformed event", logging.Fields{"line": line, "error": err.Error()})
			continue
		}
		res := rec.Apply(ev)
		result.Outcomes[res.Outcome.String()]++
	}
	if err := scanner.Err(); err != nil {
		return replayResult{}, fmt.Errorf("failed to read event log: %w", err)
	}

	result.Tokens = store.RenderOrder()
	result.Fingerprint = hash.Board(result.Tokens)
	return result, nil
}
