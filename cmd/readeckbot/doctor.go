package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"readeckbot/internal/config"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your readeckbot installation",
		Long: `Verifies that readeckbot's configuration, stores, provisioning tools,
and Readeck backend are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("readeckbot Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				failed++
				fmt.Printf("\nRun 'readeckbot init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
				fmt.Printf("\nResults: %d passed, %d failed\n", passed, failed)
				return nil
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Token store directory writable
			if err := checkWritableDir(filepath.Dir(cfg.Store.TokensPath)); err != nil {
				printFail("Token store", err.Error())
				failed++
			} else {
				printPass("Token store", cfg.Store.TokensPath)
				passed++
			}

			// 4. History database writable
			if cfg.Store.HistoryDBPath != "" {
				if err := checkDatabase(cfg.Store.HistoryDBPath); err != nil {
					printFail("History database", err.Error())
					failed++
				} else {
					printPass("History database", cfg.Store.HistoryDBPath)
					passed++
				}
			} else {
				printWarn("History database", "not configured (/recent disabled)")
				warned++
			}

			// 5. Readeck backend reachable
			if err := checkBackend(cfg.Readeck.BaseURL); err != nil {
				printWarn("Readeck backend", fmt.Sprintf("%s: %v", cfg.Readeck.BaseURL, err))
				warned++
			} else {
				printPass("Readeck backend", cfg.Readeck.BaseURL)
				passed++
			}

			// 6. Provisioning paths. Registration needs at least one of them.
			cliOK := false
			if _, err := exec.LookPath("readeck"); err != nil {
				printWarn("readeck CLI", "not found in PATH")
				warned++
			} else {
				printPass("readeck CLI", "found")
				passed++
				cliOK = true
			}
			if _, err := exec.LookPath("docker"); err != nil {
				if cliOK {
					printWarn("docker", "not found in PATH (no provisioning fallback)")
					warned++
				} else {
					printFail("docker", "not found in PATH and no readeck CLI: /register cannot work")
					failed++
				}
			} else {
				printPass("docker", "found")
				passed++
			}

			// 7. Telegram channel
			if cfg.Channels.Telegram.Enabled {
				printPass("Telegram", "enabled")
				passed++
			} else {
				printWarn("Telegram", "disabled (only the CLI channel will run)")
				warned++
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running readeckbot.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nreadeckbot should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! readeckbot is ready to run.\n")
			}
			return nil
		},
	}
}

func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

func checkDatabase(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("cannot create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("cannot open: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("cannot ping: %w", err)
	}
	return nil
}

// checkBackend treats any HTTP response as reachable; auth failures are
// expected without a token.
func checkBackend(baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/api/bookmarks")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func printPass(name, detail string) {
	fmt.Printf("  ✓ %-20s %s\n", name, detail)
}

func printFail(name, detail string) {
	fmt.Printf("  ✗ %-20s %s\n", name, detail)
}

func printWarn(name, detail string) {
	fmt.Printf("  ! %-20s %s\n", name, detail)
}
