package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/acta-run/acta-core/internal/agentsvc"
	"github.com/acta-run/acta-core/internal/event"
	"github.com/acta-run/acta-core/internal/ipcserver"
	"github.com/acta-run/acta-core/internal/llmclient"
	"github.com/acta-run/acta-core/internal/permcoord"
	"github.com/acta-run/acta-core/internal/tool"
)

var serveDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stdio IPC server",
	Long: `Start acta as a stdio server: envelopes are read one
per line from stdin and written one per line to stdout. This is the
transport the desktop shell speaks to acta over.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Working directory for tool execution")
}

func runServe(cmd *cobra.Command, args []string) error {
	workDir := serveDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		workDir = wd
	}

	if _, err := profiles.Init(); err != nil {
		return err
	}

	hardBlock, err := ipcserver.LoadHardBlockConfig(filepath.Join(paths.Config, "hardblock.json"))
	if err != nil {
		log.Warn().Err(err).Msg("acta: failed to load hardblock.json, continuing with an empty policy")
	}

	bus := event.NewBus()
	emitter := event.BusEmitter{Bus: bus}

	coordinator := permcoord.New(emitter, ipcserver.ActiveProfileRuleUpserter{Profiles: profiles}, log.Logger)
	tasks := agentsvc.New(emitter, log.Logger)

	registry := tool.NewRegistry()
	registry.Register(tool.EchoTool{})

	srv := ipcserver.New(profiles, coordinator, tasks, registry, llmclient.New(), hardBlock, workDir, bus, log.Logger)

	watcher, err := profiles.WatchProfiles(emitter)
	if err != nil {
		log.Warn().Err(err).Msg("acta: failed to start profile watcher")
	} else {
		defer watcher.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("acta: shutting down")
		cancel()
	}()

	log.Info().Str("version", Version).Str("directory", workDir).Msg("acta serve starting")
	return srv.Run(ctx, os.Stdin, os.Stdout)
}
