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

	"github.com/fitdeskhq/fitdesk/internal/logging"
	"github.com/fitdeskhq/fitdesk/internal/mockapi"
	"github.com/fitdeskhq/fitdesk/internal/support"
)

func newMockAPICmd() *cobra.Command {
	var (
		addr         string
		seed         bool
		disableStart bool
	)
	cmd := &cobra.Command{
		Use:   "mockapi",
		Short: "Run the in-memory development support API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			log := logging.Component("mockapi")

			opts := []mockapi.Option{}
			if disableStart {
				opts = append(opts, mockapi.WithoutStartConversation())
			}
			server := mockapi.New(opts...)
			if seed {
				seedDemo(server)
			}

			httpServer := &http.Server{Addr: addr, Handler: server.Handler()}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
			}()

			log.Info().Str("addr", addr).Bool("seeded", seed).Msg("mock support API listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("mockapi: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	cmd.Flags().BoolVar(&seed, "seed", true, "seed demo conversations")
	cmd.Flags().BoolVar(&disableStart, "disable-start", false, "answer 501 to start-conversation requests")
	return cmd
}

// seedDemo loads a handful of conversations covering all three tabs.
func seedDemo(server *mockapi.Server) {
	now := time.Now().UTC()
	server.Seed(
		support.Conversation{
			ID:          "conv-anna",
			Participant: support.Participant{ID: "cust-1", Name: "Anna Keller", Email: "anna@example.com"},
			Status:      support.StatusActive,
			Messages: []support.Message{
				{ID: "m1", ConversationID: "conv-anna", Author: support.AuthorParticipant, Content: "Hi, can I move my spin class booking to Thursday?", CreatedAt: now.Add(-10 * time.Minute)},
				{ID: "m2", ConversationID: "conv-anna", Author: support.AuthorParticipant, Content: "The 18:00 slot would be perfect.", CreatedAt: now.Add(-9 * time.Minute)},
			},
			UnreadForStaff: 2,
		},
		support.Conversation{
			ID:          "conv-marco",
			Participant: support.Participant{ID: "cust-2", Name: "Marco Ruiz", Email: "marco@example.com"},
			Status:      support.StatusActive,
			Messages: []support.Message{
				{ID: "m3", ConversationID: "conv-marco", Author: support.AuthorParticipant, Content: "My 10-pack shows 0 sessions left but I only used 7.", CreatedAt: now.Add(-1 * time.Hour)},
				{ID: "m4", ConversationID: "conv-marco", Author: support.AuthorStaff, Content: "Looking into it now, one moment.", CreatedAt: now.Add(-55 * time.Minute)},
			},
			UnreadForStaff: 0,
		},
		support.Conversation{
			ID:          "conv-lena",
			Participant: support.Participant{ID: "cust-3", Name: "Lena Fischer"},
			Status:      support.StatusResolved,
			Messages: []support.Message{
				{ID: "m5", ConversationID: "conv-lena", Author: support.AuthorParticipant, Content: "Is the sauna open during renovation?", CreatedAt: now.Add(-48 * time.Hour)},
				{ID: "m6", ConversationID: "conv-lena", Author: support.AuthorStaff, Content: "Yes, normal hours apply.", CreatedAt: now.Add(-47 * time.Hour)},
			},
		},
		support.Conversation{
			ID:          "conv-old",
			Participant: support.Participant{ID: "cust-4", Name: "Jon Berg"},
			Status:      support.StatusArchived,
			Messages: []support.Message{
				{ID: "m7", ConversationID: "conv-old", Author: support.AuthorParticipant, Content: "Cancel my trial please.", CreatedAt: now.Add(-30 * 24 * time.Hour)},
			},
		},
	)
}
