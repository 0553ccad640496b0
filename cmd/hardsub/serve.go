package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/hardsub/hardsub/internal/api"
	"github.com/hardsub/hardsub/internal/config"
	"github.com/hardsub/hardsub/internal/ffmpeg"
	"github.com/hardsub/hardsub/internal/monitor"
	"github.com/hardsub/hardsub/internal/whisper"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(configFlag *string) *cobra.Command {
	var (
		port      int
		mediaRoot string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP captioning service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, cfgExists, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Port = port
			}
			if mediaRoot != "" {
				abs, err := filepath.Abs(mediaRoot)
				if err != nil {
					return fmt.Errorf("resolve media root: %w", err)
				}
				info, err := os.Stat(abs)
				if err != nil || !info.IsDir() {
					return fmt.Errorf("media root %q is not a directory", abs)
				}
				cfg.MediaRoot = abs
			}

			// Seed a commented sample config on the first run so there is
			// something to edit, but never touch an explicitly passed path.
			if !cfgExists && *configFlag == "" {
				if err := config.CreateSample(cfgPath); err != nil {
					log.Printf("[serve] could not write sample config: %v", err)
				} else {
					log.Printf("[serve] wrote sample config to %s", cfgPath)
				}
			}

			if err := cfg.EnsureDataDir(); err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return errors.New("another hardsub server is already running")
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					log.Printf("[serve] failed to release lock: %v", err)
				}
			}()

			if cfg.DisableHWAccel {
				log.Printf("[serve] hardware acceleration disabled")
			} else {
				ffmpeg.DetectHardware()
			}

			svc := whisper.NewService(whisper.Options{
				DefaultEngine: cfg.Engine,
				PythonBin:     cfg.PythonBin,
				WhisperCppURL: cfg.WhisperCppURL,
				OpenAIKey:     cfg.OpenAIKey,
			})
			log.Printf("[serve] engines: %s (default %s)", strings.Join(svc.EngineNames(), ", "), svc.DefaultEngine())

			mon := monitor.New()
			router := api.NewRouter(svc, mon, api.Options{
				MediaRoot:    cfg.MediaRoot,
				ThumbnailDir: cfg.ThumbnailDir(),
				DefaultModel: cfg.Model,
				CORSOrigins:  cfg.CORSOrigins,
				Version:      version,
			})

			addr := fmt.Sprintf(":%d", cfg.Port)
			server := &http.Server{
				Addr:    addr,
				Handler: router,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Printf("[serve] media root: %s", cfg.MediaRoot)
				log.Printf("[serve] listening on %s", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				log.Printf("[serve] received %s, shutting down", sig)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	cmd.Flags().StringVar(&mediaRoot, "media-root", "", "media library root (overrides config)")

	return cmd
}
