package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/example/conference-agenda/internal/application"
	httptransport "github.com/example/conference-agenda/internal/http"
	"github.com/example/conference-agenda/internal/logging"
)

func newPlanCommand(opts *rootOptions) *cobra.Command {
	var (
		userID           string
		includePast      bool
		excludeFavorited bool
		maxPerDay        int
		refresh          bool
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate one attendee's agenda and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(userID) == "" {
				return fmt.Errorf("--user is required")
			}

			a, err := newApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.services()
			if err != nil {
				return err
			}

			params := application.GenerateAgendaParams{
				Principal: application.Principal{UserID: userID},
				Options:   application.AgendaOptions{ExcludeFavorited: excludeFavorited},
				SkipCache: refresh,
			}
			if cmd.Flags().Changed("include-past") {
				params.Options.IncludePast = &includePast
			}
			if cmd.Flags().Changed("max-per-day") {
				params.Options.MaxPerDay = &maxPerDay
			}

			ctx := logging.ContextWithLogger(cmd.Context(), a.logger)
			start := time.Now()
			agenda, err := svc.agenda.Generate(ctx, params)
			if err != nil {
				return err
			}
			a.logger.Debug("agenda planned", "user_id", userID, "elapsed", time.Since(start))

			encoded, err := json.MarshalIndent(httptransport.AgendaResponse(agenda), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return err
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "attendee user ID")
	cmd.Flags().BoolVar(&includePast, "include-past", false, "keep sessions that already started")
	cmd.Flags().BoolVar(&excludeFavorited, "exclude-favorited", false, "leave favorites out of the ranking")
	cmd.Flags().IntVar(&maxPerDay, "max-per-day", 0, "cap sessions per day (0 = no cap)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore a cached agenda")
	return cmd
}
