package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"wakectl/internal/client"
	"wakectl/internal/config"
	"wakectl/internal/constants"
	"wakectl/internal/errors"
	"wakectl/internal/logger"
	"wakectl/internal/server"
	"wakectl/internal/service"
	"wakectl/internal/xdg"

	"github.com/spf13/cobra"
)

// ServerCommands creates server management commands
func ServerCommands(d *Deps) []*cobra.Command {
	commands := []*cobra.Command{}

	defaultPort := constants.DefaultServerPort
	defaultHost := constants.DefaultServerHost
	if d.Config != nil {
		defaultPort = d.Config.Server.Port
		defaultHost = d.Config.Server.Host
	}

	// wakectl server start
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the wakectl API server",
		Long: `Start the wakectl HTTP API server. It loads the registry once, keeps the
state of every probed service in memory and serves wake, status and health
calls to other wakectl clients.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			registryPath, _ := cmd.Flags().GetString("registry")
			daemon, _ := cmd.Flags().GetBool("daemon")

			if daemon {
				return startServerDaemon(d, host, port, registryPath)
			}
			return runServer(cmd.Context(), d.Config, host, port, registryPath)
		},
	}
	startCmd.Flags().String("host", defaultHost, "Address to listen on")
	startCmd.Flags().IntP("port", "p", defaultPort, "Port to run the server on")
	startCmd.Flags().StringP("registry", "r", "", "Registry file (defaults to registry.path)")
	startCmd.Flags().BoolP("daemon", "d", false, "Run server in daemon mode (background)")
	commands = append(commands, startCmd)

	// wakectl server stop
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a server started with --daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return stopServer(d)
		},
	}
	commands = append(commands, stopCmd)

	// wakectl server status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Check server status",
		Long:  `Check whether a daemonized server is running and whether the API answers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serverStatus(cmd.Context(), d)
		},
	}
	commands = append(commands, statusCmd)

	return commands
}

// runServer serves the API in the foreground until ctx is cancelled or a
// termination signal arrives
func runServer(ctx context.Context, g *config.GlobalConfig, host string, port int, registryPath string) error {
	if g == nil {
		g = config.DefaultGlobalConfig()
	}
	cfg := *g
	if registryPath != "" {
		cfg.Registry.Path = registryPath
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	backend, err := service.FromConfig(&cfg)
	if err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"registry":    cfg.Registry.Path,
		"environment": cfg.Registry.DefaultEnvironment,
		"auth":        cfg.Server.APIToken != "",
	}).Info("Registry loaded")

	return server.New(server.ConfigFromGlobal(&cfg), backend).Start(ctx)
}

func pidFilePath() string {
	return filepath.Join(xdg.LogsDir(), "server.pid")
}

// startServerDaemon starts the server in background daemon mode
func startServerDaemon(d *Deps, host string, port int, registryPath string) error {
	args := []string{"server", "start", "--host", host, "--port", strconv.Itoa(port)}
	if registryPath != "" {
		args = append(args, "--registry", registryPath)
	}
	if d.ConfigPath != "" {
		args = append(args, "--config", d.ConfigPath)
	}

	cmd := exec.Command(os.Args[0], args...)

	logsDir := xdg.LogsDir()
	if err := os.MkdirAll(logsDir, constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	logPath := filepath.Join(logsDir, "server.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server daemon: %w", err)
	}

	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(cmd.Process.Pid)), 0644); err != nil {
		// untracked daemons cannot be stopped later
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	fmt.Fprintf(d.out(), "wakectl server started on %s:%d (PID: %d)\n", host, port, cmd.Process.Pid)
	fmt.Fprintf(d.out(), "Logs: %s\n", logPath)
	fmt.Fprintln(d.out(), "Use 'wakectl server stop' to stop the server")
	return nil
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.InvalidInput(string(data), "a process id in "+pidFilePath())
	}
	return pid, nil
}

// stopServer sends SIGTERM to a daemonized server and waits for it to exit
func stopServer(d *Deps) error {
	pid, err := readPID()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(d.out(), "No server PID file found. Server may not be running.")
			return nil
		}
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	fmt.Fprintf(d.out(), "Sending shutdown signal to server (PID: %d)...\n", pid)
	if err := process.Signal(syscall.SIGTERM); err != nil {
		_ = os.Remove(pidFilePath())
		return fmt.Errorf("failed to send shutdown signal: %w", err)
	}

	// the daemon is not our child, so poll instead of Wait
	deadline := time.Now().Add(constants.DefaultServerShutdownTimeout)
	for time.Now().Before(deadline) {
		if process.Signal(syscall.Signal(0)) != nil {
			fmt.Fprintln(d.out(), "Server stopped successfully")
			_ = os.Remove(pidFilePath())
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}

	fmt.Fprintln(d.out(), "Server didn't stop gracefully, sending SIGKILL...")
	_ = process.Kill()
	_ = os.Remove(pidFilePath())
	return nil
}

// serverStatus reports the daemon process and whether the API answers
func serverStatus(ctx context.Context, d *Deps) error {
	pid, err := readPID()
	switch {
	case os.IsNotExist(err):
		fmt.Fprintln(d.out(), "Daemon: not running (no PID file)")
	case err != nil:
		fmt.Fprintf(d.out(), "Daemon: unknown (%v)\n", err)
	default:
		process, _ := os.FindProcess(pid)
		if process == nil || process.Signal(syscall.Signal(0)) != nil {
			fmt.Fprintf(d.out(), "Daemon: not running (PID %d is dead)\n", pid)
			_ = os.Remove(pidFilePath())
		} else {
			fmt.Fprintf(d.out(), "Daemon: running (PID: %d)\n", pid)
		}
	}

	url := serverURL(d.Config)
	c, err := client.New(url, client.Options{Token: clientToken(d.Config)})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(d.out(), "API:    %s not answering at %s\n", failedStyle.Render("✗"), url)
		return &ExitError{Code: 1}
	}
	fmt.Fprintf(d.out(), "API:    %s %s (version %v, up %v)\n",
		liveStyle.Render("✓"), url, health["version"], health["uptime"])
	return nil
}

// serverURL is the configured remote server, or the local server address
func serverURL(g *config.GlobalConfig) string {
	if g == nil {
		return fmt.Sprintf("http://%s:%d", constants.DefaultServerHost, constants.DefaultServerPort)
	}
	if g.Client.ServerURL != "" {
		return g.Client.ServerURL
	}
	host := g.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, g.Server.Port)
}

func clientToken(g *config.GlobalConfig) string {
	if g == nil {
		return ""
	}
	if g.Client.Token != "" {
		return g.Client.Token
	}
	return g.Server.APIToken
}
