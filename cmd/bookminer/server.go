package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kfellner/bookminer/internal/ollama"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage the local Ollama container",
	Long: `Manage the local Ollama model server container lifecycle.

The server runs in a Docker container with models persisted to
~/.bookminer/ollama/, so pulled models survive container removal.

Examples:
  bookminer server start   # Start the Ollama container
  bookminer server stop    # Stop the container (models preserved)
  bookminer server status  # Check container status
  bookminer server logs    # View container logs
  bookminer server pull gemma3`,
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Ollama container",
	Long: `Start the Ollama container.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, this is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getServerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Starting Ollama...")
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start Ollama: %w", err)
		}

		fmt.Printf("Ollama is running at %s\n", mgr.URL())
		return nil
	},
}

var serverStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the Ollama container",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getServerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Stopping Ollama...")
		if err := mgr.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop Ollama: %w", err)
		}

		fmt.Println("Ollama stopped")
		return nil
	},
}

var serverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show Ollama container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getServerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		switch status {
		case ollama.StatusRunning:
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("URL: %s\n", mgr.URL())

			client := ollama.NewAdminClient(mgr.URL())
			if version, err := client.Version(ctx); err != nil {
				fmt.Printf("Health: unhealthy (%v)\n", err)
			} else {
				fmt.Printf("Health: healthy (v%s)\n", version)
			}
		case ollama.StatusStopped:
			fmt.Printf("Status: %s (use 'bookminer server start' to start)\n", status)
		case ollama.StatusNotFound:
			fmt.Printf("Status: %s (use 'bookminer server start' to create)\n", status)
		default:
			fmt.Printf("Status: %s\n", status)
		}

		return nil
	},
}

var serverLogsTail string

var serverLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show Ollama container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getServerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		logs, err := mgr.Logs(ctx, serverLogsTail)
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}

		fmt.Print(logs)
		return nil
	},
}

var serverRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the Ollama container",
	Long: `Remove the Ollama container.

This stops and removes the container. Models in ~/.bookminer/ollama/
are NOT deleted - only the container is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getServerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Removing Ollama container...")
		if err := mgr.Remove(ctx); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}

		fmt.Println("Ollama container removed (models preserved)")
		return nil
	},
}

var serverWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for Ollama to be ready",
	Long: `Wait for Ollama to be ready to accept requests.

This is useful in scripts to ensure the server is fully started
before running an extraction.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getServerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		timeout, _ := cmd.Flags().GetDuration("timeout")
		fmt.Printf("Waiting for Ollama (timeout: %s)...\n", timeout)

		if err := mgr.WaitReady(ctx, timeout); err != nil {
			return fmt.Errorf("Ollama not ready: %w", err)
		}

		fmt.Println("Ollama is ready")
		return nil
	},
}

var serverPullCmd = &cobra.Command{
	Use:   "pull <model>",
	Short: "Pull a model into the local server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		model := args[0]

		mgr, err := getServerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		client := ollama.NewAdminClient(mgr.URL())
		lastStatus := ""
		err = client.EnsureModel(ctx, model, func(p ollama.PullProgress) {
			if p.Status != lastStatus {
				fmt.Println(p.Status)
				lastStatus = p.Status
			}
		})
		if err != nil {
			return fmt.Errorf("failed to pull %s: %w", model, err)
		}

		fmt.Printf("Model %s is available\n", model)
		return nil
	},
}

func init() {
	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverStopCmd)
	serverCmd.AddCommand(serverStatusCmd)
	serverCmd.AddCommand(serverLogsCmd)
	serverCmd.AddCommand(serverRemoveCmd)
	serverCmd.AddCommand(serverWaitCmd)
	serverCmd.AddCommand(serverPullCmd)

	serverLogsCmd.Flags().StringVar(&serverLogsTail, "tail", "100", "Number of lines to show from the end")
	serverWaitCmd.Flags().Duration("timeout", 60*time.Second, "Timeout waiting for Ollama")

	rootCmd.AddCommand(serverCmd)
}

// getServerManager creates a DockerManager from config with the model
// directory mounted from the home dir.
func getServerManager() (*ollama.DockerManager, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	h, err := getHome()
	if err != nil {
		return nil, err
	}

	modelPath := h.ServerDataPath()
	if err := os.MkdirAll(modelPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}

	return ollama.NewDockerManager(ollama.DockerConfig{
		ContainerName: cfg.Server.ContainerName,
		Image:         cfg.Server.Image,
		ModelPath:     modelPath,
		HostPort:      cfg.Server.Port,
	})
}
