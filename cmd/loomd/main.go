// Command loomd is the long-running reactor host (SPEC_FULL.md §0): it
// owns a Controller, drives render(canvas) on a timer in lieu of a real
// GUI frame clock (the GUI itself is out of scope, spec §1), and exposes
// the devtools remote-debugging protocol over WebSocket.
//
// Grounded on the teacher's cmd/wtd/main.go: the same cobra root command
// with --addr/--db flags, opening a store, constructing a server wired to
// it, running an http.Server in a goroutine, and shutting down cleanly on
// SIGINT.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/loomweb/loom/internal/controller"
	"github.com/loomweb/loom/internal/devtools"
	"github.com/loomweb/loom/internal/logger"
	"github.com/loomweb/loom/internal/overrides"
	"github.com/loomweb/loom/internal/platform"
	"github.com/loomweb/loom/internal/security"
	"github.com/loomweb/loom/internal/store"
)

// noopCanvas stands in for the host GUI's pixel framebuffer (spec §1: the
// window manager and framebuffer are external collaborators, out of
// scope for the core). loomd has no real GUI to paint into, so its
// reactor tick runs Render purely to advance fetch polling and script
// timers, discarding the paint list.
type noopCanvas struct{}

func (noopCanvas) FillRect(x, y, w, h int, color platform.Color)                   {}
func (noopCanvas) DrawRect(x, y, w, h int, color platform.Color)                   {}
func (noopCanvas) DrawLine(x0, y0, x1, y1 int, color platform.Color)               {}
func (noopCanvas) SetPixel(x, y int, color platform.Color)                         {}
func (noopCanvas) DrawText(x, y int, text string, color platform.Color)            {}
func (noopCanvas) DrawTextScaled(x, y int, text string, color platform.Color, s float64) {}

func main() {
	var addr, dbPath, overridesDir, rpID string
	var viewportW, viewportH int
	var frameHz int

	root := &cobra.Command{
		Use:   "loomd",
		Short: "loom reactor host: owns tabs, fetches, and the devtools protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init("info", ""); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			st, err := store.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			tickets, err := st.LoadTickets()
			if err != nil {
				return fmt.Errorf("load session tickets: %w", err)
			}

			fetcher := controller.NewTLSFetcher(tickets)
			c := controller.New(fetcher, tickets, viewportW, viewportH)
			c.Platform = platform.NewOSFileSystem()

			if overridesDir != "" {
				mgr, err := overrides.New(overridesDir)
				if err != nil {
					return fmt.Errorf("watch overrides dir: %w", err)
				}
				defer mgr.Close()
				c.SetOverrides(mgr)
			}

			if rpID != "" {
				c.SetSecurity(security.NewManager(st, rpID, nil))
			}

			devSrv, err := devtools.NewServer(c, nil)
			if err != nil {
				return fmt.Errorf("init devtools server: %w", err)
			}

			mux := http.NewServeMux()
			devSrv.RegisterRoutes(mux)
			httpSrv := &http.Server{Addr: addr, Handler: mux}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Log.Info("loomd listening", "addr", addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			ticker := time.NewTicker(time.Second / time.Duration(frameHz))
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					logger.Log.Info("shutting down")
					return httpSrv.Close()
				case err := <-errCh:
					if err != nil && err != http.ErrServerClosed {
						return err
					}
					return nil
				case now := <-ticker.C:
					c.Render(noopCanvas{}, now.UnixMilli())
				}
			}
		},
	}

	root.Flags().StringVar(&addr, "addr", "127.0.0.1:9876", "devtools listen address")
	root.Flags().StringVar(&dbPath, "db", "loomd.db", "sqlite database path (session tickets, history, credentials)")
	root.Flags().StringVar(&overridesDir, "overrides", "", "local developer overrides directory (disabled when empty)")
	root.Flags().StringVar(&rpID, "rp-id", "", "WebAuthn relying-party ID enabling saved-credential/passkey autofill (disabled when empty)")
	root.Flags().IntVar(&viewportW, "viewport-width", 1920, "viewport content width in pixels")
	root.Flags().IntVar(&viewportH, "viewport-height", 1080, "viewport content height in pixels")
	root.Flags().IntVar(&frameHz, "frame-hz", 30, "reactor tick rate in lieu of a GUI frame clock")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
