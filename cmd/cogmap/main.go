package main

import (
	"log"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "cogmap",
		Short: "A cognitive map client that mirrors a remote tree of questions",
		Long: `cogmap keeps a local copy of a hierarchical question tree, applies
the mutations a remote authority confirms and serves the laid-out view.`,
	}
	clientCmd = &cobra.Command{
		Use:   "client",
		Short: "Connect to the authority and serve the view API",
		RunE:  runClient,
	}
	authorityCmd = &cobra.Command{
		Use:   "authority",
		Short: "Run a development mutation authority",
		RunE:  runAuthority,
	}
	layoutCmd = &cobra.Command{
		Use:   "layout [snapshot.db]",
		Short: "Print the laid-out view of a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runLayout,
	}

	authorityAddr  string
	authorityPath  string
	authorityEcho  bool
	layoutFilePath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	authorityCmd.Flags().StringVar(&authorityAddr, "addr", ":8001", "listen address")
	authorityCmd.Flags().StringVar(&authorityPath, "path", "/ws/chat", "websocket endpoint path")
	authorityCmd.Flags().BoolVar(&authorityEcho, "echo", false, "answer chat questions by echoing them")

	layoutCmd.Flags().StringVar(&layoutFilePath, "layout", "", "layout spacing file (yaml)")

	rootCmd.AddCommand(clientCmd)
	rootCmd.AddCommand(authorityCmd)
	rootCmd.AddCommand(layoutCmd)
}
