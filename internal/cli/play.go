package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ttbud/ttbud-sub001/internal/board"
	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/logging"
	"github.com/ttbud/ttbud-sub001/internal/session"
	"github.com/ttbud/ttbud-sub001/internal/transport"
	"github.com/ttbud/ttbud-sub001/internal/transport/ws"
	"github.com/ttbud/ttbud-sub001/internal/tui"
)

var (
	playBoard    string
	playServer   string
	playSnapshot string
	playSave     string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open a board in the terminal",
	Long: `Open a shared board in the terminal UI.

With server.url (or --server) set, the board is shared through that relay.
Otherwise the board is local to this process; --snapshot seeds it from a
saved board and --save writes it back on exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		if playBoard != "" {
			e.cfg.Board.ID = playBoard
		}
		if playServer != "" {
			e.cfg.Server.URL = playServer
		}

		logFile, err := e.openLogFile()
		if err != nil {
			return err
		}
		defer logFile.Close()
		log := e.logger(logFile).With(logging.Fields{"board": e.cfg.Board.ID})

		catalog, err := e.catalog()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		t, hub, err := connect(ctx, e, log)
		if err != nil {
			return err
		}
		sess, err := session.Join(ctx, t, session.Options{
			CellSize: e.cfg.Grid.CellSize,
			Catalog:  &catalog,
			Log:      log,
		})
		if err != nil {
			_ = t.Close()
			return err
		}
		defer sess.Close()
		log.Info("session started", logging.Fields{"origin": sess.Origin(), "offline": hub != nil})

		if err := tui.Run(ctx, sess, e.cfg.Board.ID, log); err != nil {
			return fmt.Errorf("terminal UI failed: %w", err)
		}

		if playSave == "" {
			return nil
		}
		var tokens []board.Token
		if hub != nil {
			tokens = hub.Tokens()
		} else {
			tokens = sess.Tokens()
		}
		if err := e.snapshots.Save(playSave, e.cfg.Board.ID, tokens); err != nil {
			return err
		}
		PrintSuccess(cmd.OutOrStdout(), "Saved "+PrintCount(len(tokens), "token", "tokens")+" to "+playSave)
		return nil
	},
}

func init() {
	playCmd.Flags().StringVar(&playBoard, "board", "", "Board to join (default from config)")
	playCmd.Flags().StringVar(&playServer, "server", "", "Relay URL (default from config; empty plays offline)")
	playCmd.Flags().StringVar(&playSnapshot, "snapshot", "", "Seed an offline board from this snapshot")
	playCmd.Flags().StringVar(&playSave, "save", "", "Save the board to this snapshot on exit")
}

// connect returns the transport for a play session. Offline boards are backed
// by an in-process hub, which is returned so its contents can be saved.
func connect(ctx context.Context, e *env, log *logging.Logger) (transport.Transport, *transport.Hub, error) {
	if !e.cfg.Offline() {
		c, err := ws.Dial(ctx, e.cfg.Server.URL, e.cfg.Board.ID, log)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	}

	q, err := grid.New(e.cfg.Grid.CellSize)
	if err != nil {
		return nil, nil, err
	}
	hub := transport.NewHub(q, log)
	if playSnapshot != "" {
		tokens, err := e.snapshots.Load(playSnapshot)
		if err != nil {
			return nil, nil, err
		}
		for _, err := range hub.Seed(tokens) {
			log.Warn("skipping snapshot token", logging.Fields{"error": err.Error()})
		}
	}
	return hub.Connect(), hub, nil
}
