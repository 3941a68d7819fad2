package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/synclog/internal/client"
	"github.com/alfredjeanlab/synclog/internal/ui"
)

var (
	serverAddr      string
	httpURL         string
	clientTransport string
	authToken       string
	jsonOutput      bool
	noColor         bool
	timeout         time.Duration

	loggerClient client.LoggerClient
)

func defaultHTTPURL() string {
	if s := os.Getenv("SYNCLOG_HTTP_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

func defaultServer() string {
	if s := os.Getenv("SYNCLOG_SERVER"); s != "" {
		return s
	}
	return "localhost:9090"
}

// newClient builds the daemon client for the selected transport.
func newClient() (client.LoggerClient, error) {
	switch clientTransport {
	case "http":
		return client.NewHTTPClient(httpURL, authToken), nil
	case "grpc":
		c, err := client.NewGRPCClient(serverAddr, authToken)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to server: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown transport %q (must be http or grpc)", clientTransport)
	}
}

// commandContext bounds a single daemon call.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// noClient is used by commands that do not talk to the daemon.
func noClient(*cobra.Command, []string) error {
	if noColor {
		ui.ForceNoColor()
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:           "synclog <command>",
	Short:         "Synchronized stream data logger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		loggerClient = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if loggerClient != nil {
			loggerClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", defaultServer(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&clientTransport, "transport", "http", "transport protocol (http or grpc)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("SYNCLOG_AUTH_TOKEN"), "bearer token for the daemon")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout for daemon requests")

	rootCmd.AddGroup(
		&cobra.Group{ID: "logging", Title: "Logging:"},
		&cobra.Group{ID: "streams", Title: "Streams:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Logging
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessionsCmd)

	// Streams
	rootCmd.AddCommand(streamsCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(typesCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
