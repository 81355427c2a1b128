package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/retail-console/console"
	"github.com/jrsteele09/retail-console/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Flags that override the matching environment variables
var (
	apiURLFlag   string
	storageFlag  string
	logLevelFlag string
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "console",
		Short: "Retail operations console",
		Long: `Command line client for the retail operations console API.

Signs staff in (with the emailed verification code when the account requires it),
keeps the session and the selected store between runs, and reads store scoped
resources through the same request pipeline the web console uses.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: applyGlobalFlags,
	}

	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Console API base URL (CONSOLE_API_URL)")
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "Session storage backend: bolt, redis or memory (STORAGE)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (LOG_LEVEL)")

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		statusCmd(),
		tenantCmd(),
		getCmd(),
		devServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func applyGlobalFlags(cmd *cobra.Command, _ []string) error {
	overrides := map[string]string{
		"CONSOLE_API_URL": apiURLFlag,
		"STORAGE":         storageFlag,
		"LOG_LEVEL":       logLevelFlag,
	}
	for envVar, value := range overrides {
		if value == "" {
			continue
		}
		if err := os.Setenv(envVar, value); err != nil {
			return err
		}
	}
	setupLogging(config.New().GetLogLevel())
	return nil
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// openApp wires a console from the environment. Callers must Close it.
func openApp() (*console.App, error) {
	return console.New(config.New())
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
