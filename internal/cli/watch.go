package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fitdeskhq/fitdesk/internal/support"
	"github.com/fitdeskhq/fitdesk/internal/support/engine"
)

func newWatchCmd() *cobra.Command {
	var tabFlag string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream conversation updates as JSONL",
		Long:  "watch runs the sync engine headless and emits one JSON line per applied update until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			tab, err := support.ParseStatus(tabFlag)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), eng, tab, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&tabFlag, "tab", string(support.StatusActive), "status tab to follow (active, resolved, archived)")
	return cmd
}

// watchRecord is one JSONL line of the watch stream.
type watchRecord struct {
	Time           time.Time      `json:"time"`
	Kind           string         `json:"kind"`
	Tab            support.Status `json:"tab,omitempty"`
	ConversationID string         `json:"conversation_id,omitempty"`
	UnreadBadge    int            `json:"unread_badge"`
	Conversations  int            `json:"conversations"`
	Error          string         `json:"error,omitempty"`
}

// runWatch drives the engine until the context is cancelled or the session
// expires. Returns nil on graceful shutdown (Ctrl+C).
func runWatch(ctx context.Context, eng *engine.Engine, tab support.Status, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	eng.Start(tab)
	defer eng.Stop()

	encoder := json.NewEncoder(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-eng.Updates():
			record := watchRecord{
				Time:           time.Now().UTC(),
				Kind:           string(event.Kind),
				Tab:            event.Tab,
				ConversationID: event.ConversationID,
				UnreadBadge:    eng.Store().UnreadBadge(),
				Conversations:  len(eng.Store().Conversations(eng.Store().Tab())),
			}
			if event.Err != nil {
				record.Error = event.Err.Error()
			}
			if err := encoder.Encode(record); err != nil {
				return err
			}
			if event.Kind == engine.EventUnauthorized {
				return errors.New("session expired")
			}
		}
	}
}
