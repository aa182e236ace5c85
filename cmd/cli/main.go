package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/finbooks/ledger/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "finbooks-cli",
		Short: "FinBooks ledger CLI tool",
		Long:  `A command line interface for operating the FinBooks ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Ledger commands
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	ledgerCmd.AddCommand(consistencyCmd())

	// Reconciliation commands
	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Bank reconciliation operations",
	}
	reconcileCmd.AddCommand(candidatesCmd(), autoReconcileCmd())

	rootCmd.AddCommand(ledgerCmd, reconcileCmd, migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func consistencyCmd() *cobra.Command {
	var fiscalYear int

	cmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check that posted debits equal posted credits",
		Run: func(cmd *cobra.Command, args []string) {
			url := baseURL + "/api/v1/ledger/consistency"
			if fiscalYear > 0 {
				url += "?fiscal_year=" + strconv.Itoa(fiscalYear)
			}
			checkConsistency(url)
		},
	}

	cmd.Flags().IntVar(&fiscalYear, "fiscal-year", 0, "Fiscal year to check (defaults to current year)")

	return cmd
}

func checkConsistency(url string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Consistency check FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if consistent, ok := result["consistent"].(bool); ok && !consistent {
		fmt.Printf("Consistency check FAILED: ledger is out of balance\n")
		printJSON(result)
		os.Exit(1)
	}

	fmt.Printf("Consistency check PASSED\n")
	printJSON(result)
}

func candidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "Generate match candidates for review",
		Run: func(cmd *cobra.Command, args []string) {
			getAndPrint(baseURL + "/api/v1/reconciliation/candidates")
		},
	}
}

func autoReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto",
		Short: "Commit all confident matches in one batch",
		Run: func(cmd *cobra.Command, args []string) {
			client := &http.Client{Timeout: timeout}
			resp, err := client.Post(baseURL+"/api/v1/reconciliation/auto", "application/json", nil)
			if err != nil {
				fmt.Printf("Error making request: %v\n", err)
				os.Exit(1)
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)

			if resp.StatusCode != http.StatusOK {
				fmt.Printf("Auto reconciliation FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
				os.Exit(1)
			}

			var result map[string]any
			if err := json.Unmarshal(body, &result); err != nil {
				fmt.Printf("Failed to parse response: %v\n", err)
				os.Exit(1)
			}

			printJSON(result)
		},
	}
}

func migrateCmd() *cobra.Command {
	var databaseURL, migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}

	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Path to migration files")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			if err := postgres.RunMigrations(databaseURL, migrationsPath); err != nil {
				fmt.Printf("Migration failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Migrations applied")
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Run: func(cmd *cobra.Command, args []string) {
			if err := postgres.RunMigrationsDown(databaseURL, migrationsPath); err != nil {
				fmt.Printf("Rollback failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Migration rolled back")
		},
	}

	cmd.AddCommand(upCmd, downCmd)

	return cmd
}

func getAndPrint(url string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	printJSON(result)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to encode output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
