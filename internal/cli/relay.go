package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ttbud/ttbud-sub001/internal/grid"
	"github.com/ttbud/ttbud-sub001/internal/logging"
	"github.com/ttbud/ttbud-sub001/internal/transport/ws"
)

const relayShutdownTimeout = 5 * time.Second

var relayAddr string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run a relay that shares boards between players",
	Long: `Run a websocket relay. Every board id gets its own room; each event a
player publishes is forwarded to the other players on that board, and the
relay keeps the board's contents so late joiners get a snapshot.

The relay is meant for local games and development. It keeps boards in memory
only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		addr := e.cfg.Relay.Addr
		if relayAddr != "" {
			addr = relayAddr
		}
		log := e.logger(cmd.ErrOrStderr()).With(logging.Fields{"component": "relay"})

		q, err := grid.New(e.cfg.Grid.CellSize)
		if err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           ws.NewRelay(q, log).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()
		log.Info("relay listening", logging.Fields{"addr": addr, "cell_size": q.CellSize()})

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("relay failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		log.Info("relay shutting down", nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), relayShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("relay shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	relayCmd.Flags().StringVar(&relayAddr, "addr", "", "Listen address (default from config)")
}
