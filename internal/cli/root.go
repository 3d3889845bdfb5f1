// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/studyrun/internal/backend"
	"github.com/jeranaias/studyrun/internal/config"
	"github.com/jeranaias/studyrun/internal/logging"
	"github.com/jeranaias/studyrun/internal/render"
	"github.com/jeranaias/studyrun/internal/ui/app"
	"github.com/jeranaias/studyrun/internal/ui/styles"
)

// rootOptions holds the global flags.
type rootOptions struct {
	configFile string
	backendURL string
	verbose    bool
	plain      bool
}

// configPath returns --config or the default TOML location.
func (o *rootOptions) configPath() (string, error) {
	if o.configFile != "" {
		return o.configFile, nil
	}
	return config.ConfigPathTOML()
}

// loadConfig loads the configuration and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFromPath(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.backendURL != "" {
		cfg.Backend.URL = o.backendURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// session is everything a front end needs.
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	level   zap.AtomicLevel
	verbose bool
	client  *backend.Client
}

func (o *rootOptions) openSession() (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logPath, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	logger, level, err := logging.NewLeveled(logging.Options{Level: cfg.Log.Level, Path: logPath, Verbose: o.verbose})
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:     cfg,
		logger:  logger,
		level:   level,
		verbose: o.verbose,
		client:  backend.NewClientWithConfig(clientConfig(cfg, logger)),
	}, nil
}

func (s *session) close() {
	s.client.Close()
	_ = s.logger.Sync()
}

// watchPath returns the file the running program follows for changes:
// --config, or whichever default file Load would read.
func (o *rootOptions) watchPath() (string, error) {
	if o.configFile != "" {
		return o.configFile, nil
	}
	return config.ActivePath()
}

// watchSettings follows the config file and forwards the reloadable part
// of each valid change. Backend settings need a restart. The returned stop
// function must be called once the consumer is gone.
func (s *session) watchSettings(path string) (<-chan app.Settings, func()) {
	w, err := config.NewWatcher(path, config.DefaultWatchDebounce, s.logger)
	if err != nil {
		s.logger.Warn("config reload disabled", zap.String("path", path), zap.Error(err))
		return nil, func() {}
	}

	out := make(chan app.Settings)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for cfg := range w.Changes() {
			s.applyLogLevel(cfg.Log.Level)
			select {
			case out <- app.Settings{Format: cfg.UI.Format(), Compact: cfg.UI.Compact}:
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			close(done)
			_ = w.Close()
		})
	}
}

// applyLogLevel follows a reloaded log.level unless --verbose pinned debug.
func (s *session) applyLogLevel(name string) {
	if s.verbose {
		return
	}
	lvl, err := logging.ParseLevel(name)
	if err != nil {
		return
	}
	if lvl != s.level.Level() {
		s.level.SetLevel(lvl)
		s.logger.Info("log level changed", zap.Stringer("level", lvl))
	}
}

// clientConfig maps settings onto the backend client. A zero request rate
// means unlimited.
func clientConfig(cfg *config.Config, logger *zap.Logger) *backend.ClientConfig {
	rps := cfg.Backend.RequestsPerSecond
	if rps == 0 {
		rps = -1
	}
	return &backend.ClientConfig{
		BaseURL:           cfg.Backend.URL,
		Timeout:           cfg.Backend.Timeout(),
		AnalyzeTimeout:    cfg.Backend.AnalyzeTimeout(),
		IngestTimeout:     cfg.Backend.IngestTimeout(),
		RequestsPerSecond: rps,
		Burst:             cfg.Backend.Burst,
		Logger:            logger,
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// NewRootCommand builds the studyrun command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "studyrun",
		Short: "Chat with your study material and get personalized content",
		Long: `studyrun is a terminal client for the study assistant API.

Chat about ingested material, upload documents, and open the Study view
to get content generated for the topics you struggled with. Content is
regenerated only when the conversation has moved on since it was last
produced.

Run without arguments to start the full-screen interface. When stdin or
stdout is not a terminal, or with --plain, a line-mode REPL is used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.plain || !Interactive() {
				return runREPL(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return runTUI(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default ~/.studyrun/config.toml)")
	root.PersistentFlags().StringVar(&opts.backendURL, "backend", "", "backend base URL (overrides config)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.Flags().BoolVar(&opts.plain, "plain", false, "use the line-mode REPL")

	root.AddCommand(
		newREPLCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return root
}

func newREPLCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the line-mode REPL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runTUI(ctx context.Context, opts *rootOptions) error {
	s, err := opts.openSession()
	if err != nil {
		return err
	}
	defer s.close()

	var settings <-chan app.Settings
	if path, err := opts.watchPath(); err == nil {
		var stop func()
		settings, stop = s.watchSettings(path)
		defer stop()
	}

	s.logger.Info("starting tui", zap.String("backend", s.client.BaseURL()))
	return app.Run(ctx, app.Options{
		Remote:   s.client,
		Logger:   s.logger,
		Theme:    styles.NewTheme(),
		Settings: settings,
		TopK:     s.cfg.Backend.TopK,
		Format:   s.cfg.UI.Format(),
		Compact:  s.cfg.UI.Compact,
		Markdown: s.cfg.UI.Markdown,
	})
}

func runREPL(ctx context.Context, opts *rootOptions, in io.Reader, out io.Writer) error {
	s, err := opts.openSession()
	if err != nil {
		return err
	}
	defer s.close()

	theme := styles.Plain()
	var reader LineReader
	if IsTTY() && in == os.Stdin {
		reader = newHistoryReader()
		if IsStdoutTTY() {
			theme = styles.NewTheme()
		}
	} else {
		reader = newScanReader(in)
	}

	s.logger.Info("starting repl", zap.String("backend", s.client.BaseURL()))
	repl := NewREPL(REPLOptions{
		Remote:   s.client,
		In:       reader,
		Out:      out,
		Renderer: render.New(theme, render.WithWidth(TerminalWidth()), render.WithMarkdown(s.cfg.UI.Markdown)),
		Logger:   s.logger,
		TopK:     s.cfg.Backend.TopK,
		Format:   s.cfg.UI.Format(),
	})
	return repl.Run(ctx)
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, styles.Plain().Error.Render("Error: "+err.Error()))
		return 1
	}
	return 0
}
