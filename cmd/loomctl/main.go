// Command loomctl is a one-shot CLI (SPEC_FULL.md §0): load a URL (local
// file, data: URI, or http/https address), run the pipeline through to
// layout, and either dump the render tree as text, render an ANSI
// terminal "screenshot", or drive the devtools protocol of a running
// loomd.
//
// Grounded on the teacher's cmd/wt/main.go: a cobra root command plus a
// handful of subcommands, each building its own small client/transport
// and printing a plain-text report — no shared "app" struct, matching
// that file's style of one independent RunE per subcommand.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/loomweb/loom/internal/controller"
	"github.com/loomweb/loom/internal/devtools"
	"github.com/loomweb/loom/internal/platform"
	"github.com/loomweb/loom/internal/preview"
	"github.com/loomweb/loom/internal/tlsclient"
)

func main() {
	root := &cobra.Command{
		Use:   "loomctl",
		Short: "loom one-shot pipeline driver: dump, screenshot, or inspect a page",
	}
	root.AddCommand(dumpCmd(), screenshotCmd(), printCmd(), inspectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLocalController returns a Controller wired to the real TLS-backed
// fetcher, for subcommands that drive the pipeline in-process rather than
// against a running loomd.
func newLocalController(viewportW, viewportH int) *controller.Controller {
	cache := tlsclient.NewTicketCache()
	fetcher := controller.NewTLSFetcher(cache)
	return controller.New(fetcher, cache, viewportW, viewportH)
}

// loadTab navigates the controller's active tab to arg, treating it as a
// local file path (read and wrapped as a base64 data: URL) when such a
// file exists, and as a literal URL (http/https/about/data/blob)
// otherwise.
func loadTab(c *controller.Controller, arg string) *controller.Tab {
	tab := c.ActiveTab()
	if data, err := os.ReadFile(arg); err == nil {
		encoded := base64.StdEncoding.EncodeToString(data)
		c.Navigate(tab, "data:text/html;base64,"+encoded)
		return tab
	}
	c.Navigate(tab, arg)
	return tab
}

func dumpCmd() *cobra.Command {
	var width, height int
	cmd := &cobra.Command{
		Use:   "dump <url-or-file>",
		Short: "run the pipeline to layout and print the render tree as text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newLocalController(width, height)
			tab := loadTab(c, args[0])
			if tab.Layout == nil {
				return fmt.Errorf("page produced no layout")
			}
			fmt.Printf("title: %s\n", tab.Title)
			for _, line := range tab.Layout.Lines {
				var b strings.Builder
				for _, span := range line.Spans {
					b.WriteString(span.Text)
				}
				fmt.Printf("%4d | %s\n", line.Y, b.String())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "viewport-width", 800, "viewport content width in pixels")
	cmd.Flags().IntVar(&height, "viewport-height", 600, "viewport content height in pixels")
	return cmd
}

func screenshotCmd() *cobra.Command {
	var cols, rows, width, height int
	cmd := &cobra.Command{
		Use:   "screenshot <url-or-file>",
		Short: "render an ANSI terminal screenshot of the laid-out page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cols <= 0 || rows <= 0 {
				cols, rows = terminalSizeOrDefault()
			}
			c := newLocalController(width, height)
			tab := loadTab(c, args[0])
			if tab.Layout == nil {
				return fmt.Errorf("page produced no layout")
			}
			r := preview.New(cols, rows)
			defer r.Close()
			fmt.Print(r.Render(tab.Layout, tab.ScrollY))
			return nil
		},
	}
	cmd.Flags().IntVar(&cols, "cols", 0, "terminal columns (defaults to the current terminal's width)")
	cmd.Flags().IntVar(&rows, "rows", 0, "terminal rows (defaults to the current terminal's height)")
	cmd.Flags().IntVar(&width, "viewport-width", 800, "viewport content width in pixels")
	cmd.Flags().IntVar(&height, "viewport-height", 600, "viewport content height in pixels")
	return cmd
}

func printCmd() *cobra.Command {
	var cols, width, height int
	var out string
	cmd := &cobra.Command{
		Use:   "print <url-or-file>",
		Short: "render the full page as plain text and write it to a file (spec §6's persisted \"print to file\" path)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newLocalController(width, height)
			tab := loadTab(c, args[0])
			if tab.Layout == nil {
				return fmt.Errorf("page produced no layout")
			}
			rows := len(tab.Layout.Lines)
			if rows < 1 {
				rows = 1
			}
			r := preview.New(cols, rows)
			defer r.Close()
			text := r.Print(tab.Layout)

			fs := &platform.OSFileSystem{}
			if out == "" {
				fmt.Print(text)
				return nil
			}
			return fs.Write(out, []byte(text))
		},
	}
	cmd.Flags().IntVar(&cols, "cols", 80, "plain-text page width in characters")
	cmd.Flags().IntVar(&width, "viewport-width", 800, "viewport content width in pixels")
	cmd.Flags().IntVar(&height, "viewport-height", 600, "viewport content height in pixels")
	cmd.Flags().StringVar(&out, "out", "", "file path to write the printed page to (defaults to stdout)")
	return cmd
}

// terminalSizeOrDefault mirrors the teacher's cmd/wt/egg.go terminal-size
// detection: ask the real terminal when stdout is one, otherwise fall
// back to a conventional 80x24.
func terminalSizeOrDefault() (int, int) {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil {
			return w, h
		}
	}
	return 80, 24
}

func inspectCmd() *cobra.Command {
	var addr, token, tabID, kind string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "drive the devtools protocol against a running loomd",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" || token == "" || tabID == "" {
				return fmt.Errorf("--addr, --token, and --tab are required")
			}
			msgType, ok := map[string]string{
				"document": devtools.TypeInspectDocument,
				"styles":   devtools.TypeInspectStyles,
				"layout":   devtools.TypeInspectLayout,
				"preview":  devtools.TypeInspectPreview,
			}[kind]
			if !ok {
				return fmt.Errorf("unknown --kind %q (want document, styles, layout, or preview)", kind)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			wsURL := fmt.Sprintf("ws://%s/devtools/ws?token=%s", addr, token)
			conn, _, err := websocket.Dial(ctx, wsURL, nil)
			if err != nil {
				return fmt.Errorf("dial devtools server: %w", err)
			}
			defer conn.Close(websocket.StatusNormalClosure, "")

			req, _ := json.Marshal(devtools.Envelope{Type: msgType, ID: "loomctl", TabID: tabID})
			if err := conn.Write(ctx, websocket.MessageText, req); err != nil {
				return fmt.Errorf("send request: %w", err)
			}

			_, data, err := conn.Read(ctx)
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}

			var pretty map[string]any
			if err := json.Unmarshal(data, &pretty); err != nil {
				fmt.Println(string(data))
				return nil
			}
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9876", "loomd devtools address")
	cmd.Flags().StringVar(&token, "token", "", "devtools session token (from loomd's log)")
	cmd.Flags().StringVar(&tabID, "tab", "", "tab ID to inspect")
	cmd.Flags().StringVar(&kind, "kind", "document", "what to inspect: document, styles, layout, or preview")
	return cmd
}
