package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/service/study"
	"github.com/spf13/cobra"
)

type planOptions struct {
	userID     string
	mode       string
	maxTerms   int
	timeBudget time.Duration
	includeNew bool
	dueFirst   bool
}

// planOutput is the JSON printed by the plan command.
type planOutput struct {
	UserID uuid.UUID  `json:"user_id"`
	Mode   string     `json:"mode"`
	Items  []planItem `json:"items"`
}

type planItem struct {
	ID         uuid.UUID  `json:"id"`
	Front      string     `json:"front"`
	Strength   int        `json:"strength"`
	WrongCount int        `json:"wrong_count"`
	NextDueAt  *time.Time `json:"next_due_at,omitempty"`
}

func newPlanCommand(root *rootOptions) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the session plan a user would get now, without starting it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := uuid.Parse(opts.userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			app, err := newApplication(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.cleanup()

			plan, err := app.study.Preview(cmd.Context(), userID, study.StartOptions{
				Mode:               study.Mode(opts.mode),
				MaxTerms:           opts.maxTerms,
				TimeBudget:         opts.timeBudget,
				IncludeNewTerms:    opts.includeNew,
				PrioritizeDueTerms: opts.dueFirst,
			})
			if err != nil {
				return err
			}

			out := planOutput{UserID: userID, Mode: opts.mode, Items: make([]planItem, 0, plan.Len())}
			for _, item := range plan.Items {
				out.Items = append(out.Items, planItem{
					ID:         item.ID,
					Front:      item.FrontContent,
					Strength:   item.Strength,
					WrongCount: item.WrongCount,
					NextDueAt:  item.NextDueAt,
				})
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&opts.userID, "user", "", "user ID (required)")
	cmd.Flags().StringVar(&opts.mode, "mode", string(study.ModeIntake), "session mode: intake or mixed")
	cmd.Flags().IntVar(&opts.maxTerms, "max-terms", 0, "maximum number of items (0 uses the default)")
	cmd.Flags().DurationVar(&opts.timeBudget, "time-budget", 0, "time budget for mixed sessions, e.g. 5m")
	cmd.Flags().BoolVar(&opts.includeNew, "include-new", true, "include never-reviewed items")
	cmd.Flags().BoolVar(&opts.dueFirst, "due-first", false, "order due items before others")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
