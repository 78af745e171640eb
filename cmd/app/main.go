package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuspay/backoffice/internal/app"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "backoffice",
		Usage: "Campus meal/payment administrative API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: ":8080",
				Usage: "HTTP listen address",
			},
			&cli.StringFlag{
				Name:  "db-path",
				Value: "./backoffice.sqlite",
				Usage: "SQLite file path",
			},
			&cli.BoolFlag{
				Name:    "strict-auth",
				Sources: cli.EnvVars("BACKOFFICE_STRICT_AUTH"),
				Usage:   "Reject requests instead of falling back to header identity when the user store is unreachable",
			},
			&cli.StringFlag{
				Name:    "bootstrap-admin-id",
				Sources: cli.EnvVars("BACKOFFICE_BOOTSTRAP_ADMIN_ID"),
				Usage:   "Optional admin user id to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-admin-name",
				Value:   "bootstrap",
				Sources: cli.EnvVars("BACKOFFICE_BOOTSTRAP_ADMIN_NAME"),
				Usage:   "Display name for the bootstrap admin user",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := app.Config{
				Addr:               c.String("addr"),
				DBPath:             c.String("db-path"),
				StrictAuth:         c.Bool("strict-auth"),
				BootstrapAdminID:   c.String("bootstrap-admin-id"),
				BootstrapAdminName: c.String("bootstrap-admin-name"),
			}

			server, closer, err := app.NewServer(ctx, cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					log.Printf("close resources: %v", closeErr)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", cfg.Addr)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				log.Printf("received signal %s", sig)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
