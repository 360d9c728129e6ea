// Command multiformd runs a demo server exposing an aggregate signup
// form over HTTP: JSON validation, persisted submits, live WebSocket
// validation, and file staging.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "multiformd",
		Short: "Aggregate form demo server",
		Long: `multiformd serves a demo signup form built from multiple child
forms validated and saved as one unit. Endpoints:

  GET  /forms/signup/           the form rendered as HTML
  POST /forms/signup/validate   validation verdict as JSON
  POST /forms/signup/submit     validate and persist
  GET  /forms/signup/live       WebSocket draft validation
  POST /forms/signup/upload     file staging`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Println(version)
				return
			}
			fmt.Printf("multiformd %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Built:      %s\n", date)
			fmt.Printf("  Go version: %s\n", runtime.Version())
			fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
