package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/alsamixer-volume/internal/config"
	"github.com/user/alsamixer-volume/internal/logging"
	"github.com/user/alsamixer-volume/internal/mixer"
	"github.com/user/alsamixer-volume/internal/server"
	"github.com/user/alsamixer-volume/internal/sse"
)

func newServeCmd() *cobra.Command {
	var (
		pollInterval  time.Duration
		watchInterval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mixer over HTTP with live updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			hub := sse.NewHub()
			go hub.Run()

			monitor := mixer.NewMonitor(s.mixer, hub, pollInterval, s.cfg.MonitorFile)
			monitor.Start()

			if s.cfg.File != "" {
				watcher := config.NewWatcher(watchInterval, s.cfg.File)
				watcher.OnChange(func(changed []string) {
					reportConfigChange(cmd, s.cfg, changed)
				})
				watcher.Start()
				defer watcher.Stop()
			}

			srv := server.NewServer(s.cfg, s.mixer, hub)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			serverErrCh := make(chan error, 1)
			go func() {
				serverErrCh <- srv.Start()
			}()

			var serveErr error
			select {
			case sig := <-sigCh:
				logging.Infof("received signal %s, shutting down", sig)
			case serveErr = <-serverErrCh:
				if serveErr != nil {
					logging.Errorf("server error: %v", serveErr)
				}
			}

			monitor.Stop()
			if st := monitor.Last(); st != nil {
				logging.Infof("last mixer state: %s", st)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Stop(ctx); err != nil {
				logging.Warnf("shutdown error: %v", err)
			}
			hub.Stop()
			logging.Infof("alsamixer-volume stopped")
			return serveErr
		},
	}
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", mixer.DefaultPollInterval, "How often to read the mixer for external changes")
	cmd.Flags().DurationVar(&watchInterval, "config-watch-interval", 5*time.Second, "How often to check the configuration file for edits")
	return cmd
}

// reportConfigChange reloads the configuration after an edit. The running
// mixer keeps its target; a changed alsamixer section needs a restart.
func reportConfigChange(cmd *cobra.Command, running *config.Config, changed []string) {
	next, err := config.Load(cmd.Flags())
	if err != nil {
		logging.Warnf("configuration %v changed but does not load: %v", changed, err)
		return
	}
	if next.AlsaMixer != running.AlsaMixer {
		logging.Warnf("alsamixer configuration changed in %v; restart to apply", changed)
		return
	}
	logging.Infof("configuration %v changed", changed)
}
