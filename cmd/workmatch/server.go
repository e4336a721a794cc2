package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/workmatch/workmatch/internal/api"
	"github.com/workmatch/workmatch/internal/config"
	"github.com/workmatch/workmatch/internal/conversation"
	"github.com/workmatch/workmatch/internal/extract"
	"github.com/workmatch/workmatch/internal/llm"
	"github.com/workmatch/workmatch/internal/logger"
	"github.com/workmatch/workmatch/internal/profile"
	"github.com/workmatch/workmatch/internal/ranking"
	"github.com/workmatch/workmatch/internal/retrieval"
	"github.com/workmatch/workmatch/internal/session"
	"github.com/workmatch/workmatch/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the workmatch server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running workmatch server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workmatch server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "workmatch.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "workmatch version %s\n", version)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	// Refuse a double start: health probe first, PID file second.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("workmatch is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("workmatch is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	completer, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("initializing llm client: %w", err)
	}
	log.Info("llm provider ready", zap.String("provider", completer.Name()))

	extractTimeout, err := time.ParseDuration(cfg.LLM.Timeout)
	if err != nil {
		log.Warn("invalid llm timeout, using default 8s", zap.String("value", cfg.LLM.Timeout), zap.Error(err))
		extractTimeout = 8 * time.Second
	}

	sessions := session.NewStore(store)
	prefs := profile.NewProvider(store)
	extractor := extract.NewExtractor(completer, extractTimeout, log)
	retriever := retrieval.NewRetriever(store, cfg.Matching.ResultLimit, log)
	ranker := ranking.NewRanker(cfg.Matching.ResultLimit)
	orchestrator := conversation.NewOrchestrator(sessions, prefs, extractor, retriever, ranker, log)

	handler := api.NewAppHandler(api.AppDeps{
		Orchestrator: orchestrator,
		Store:        store,
		Profile:      prefs,
		Token:        cfg.Server.Token,
		HTTPClient:   &http.Client{Timeout: 15 * time.Second},
		Logger:       log,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// MCP server over stdio, alongside HTTP.
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Orchestrator: orchestrator,
		Retriever:    retriever,
		Ranker:       ranker,
		Profile:      prefs,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("mcp stdio server error", zap.Error(err))
		}
	}()
	log.Info("mcp server started (stdio transport)")

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("workmatch is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop workmatch (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to workmatch (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("LLM provider", "%s", cfg.LLM.Provider)
	switch cfg.LLM.Provider {
	case "openai":
		printStatus("Model", "%s", cfg.LLM.OpenAI.Model)
	case "gemini":
		printStatus("Model", "%s", cfg.LLM.Gemini.Model)
	}
	printStatus("Result limit", "%d", cfg.Matching.ResultLimit)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
