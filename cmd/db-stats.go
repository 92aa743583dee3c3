package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sampark/sampark/internal/database"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display participant counts per status, connections and theme popularity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		db, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		ctx := cmd.Context()

		counts, err := db.CountUsersByStatus(ctx)
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		rows, err := db.CountConnections(ctx)
		if err != nil {
			return fmt.Errorf("failed to count connections: %w", err)
		}
		themes, err := db.CountThemes(ctx)
		if err != nil {
			return fmt.Errorf("failed to count themes: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Pending Registrations: %s\n", humanize.Comma(counts[database.UserStatusPending]))
		fmt.Printf("Approved Participants: %s\n", humanize.Comma(counts[database.UserStatusApproved]))
		fmt.Printf("Rejected Registrations: %s\n", humanize.Comma(counts[database.UserStatusRejected]))
		fmt.Printf("Connections: %s\n", humanize.Comma(rows/2))

		if len(themes) > 0 {
			fmt.Println("\nThemes:")
			for _, t := range themes {
				fmt.Printf("  %s: %s\n", t.Name, humanize.Comma(t.Count))
			}
		}

		history, err := db.GetHistory(ctx, 5)
		if err == nil && len(history) > 0 {
			fmt.Println("\nRecent Activity:")
			for _, e := range history {
				fmt.Printf("  %s user=%d %s\n", e.EventType, e.UserID, humanize.Time(e.CreatedAt))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
