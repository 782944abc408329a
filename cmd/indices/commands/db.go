package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// dbCmd groups database commands.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database utilities",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check database connectivity and pool health",
	RunE:  runDBStatus,
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbStatusCmd)
}

func runDBStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	status, err := a.db.HealthCheck(cmd.Context())
	if err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}

	fmt.Println("Database: OK")
	fmt.Printf("  Response time: %s\n", status.ResponseTime)
	fmt.Printf("  Connections: %d total, %d acquired, %d idle (max %d)\n",
		status.Stats.TotalConns, status.Stats.AcquiredConns,
		status.Stats.IdleConns, status.Stats.MaxConns)

	if a.redis.Enabled() {
		fmt.Println("Redis: OK")
	} else {
		fmt.Println("Redis: disabled")
	}

	return nil
}
