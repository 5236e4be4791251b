// Command nougat-mcp serves the Nougat OCR tools over MCP (stdio or HTTP)
// and offers a standalone mmd→md converter for shell pipelines.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"

	"github.com/svretina/nougat-mcp/mmd"
	"github.com/svretina/nougat-mcp/ocr"
	"github.com/svretina/nougat-mcp/settings"
)

const version = "1.0.0"

func main() {
	app := &cli.App{
		Name:    "nougat-mcp",
		Usage:   "MCP server exposing the Nougat academic-PDF OCR model",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn, or error",
				Value: env("LOG_LEVEL", "info"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the MCP server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "transport",
						Usage: "stdio or http",
						Value: env("MCP_TRANSPORT", "stdio"),
					},
					&cli.StringFlag{
						Name:  "port",
						Usage: "listen port for the http transport",
						Value: env("PORT", "8085"),
					},
				},
				Action: serveAction,
			},
			{
				Name:      "convert",
				Usage:     "rewrite math delimiters in a .mmd file (or stdin) and print the result",
				ArgsUsage: "[file.mmd]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-tags", Usage: "leave \\tag{...} untouched"},
					&cli.BoolFlag{Name: "no-sized", Usage: "leave sized delimiters untouched"},
				},
				Action: convertAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func serveAction(c *cli.Context) error {
	transport := c.String("transport")

	// On stdio the protocol owns stdout; logs must go to stderr.
	logOut := os.Stdout
	if transport == "stdio" {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: logLevel(c.String("log-level"))}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, source := settings.Load()
	if source != "" {
		logger.Info("settings loaded", "source", source)
	} else {
		logger.Info("no settings file, using defaults")
	}

	pipe, err := ocr.New(ocr.Config{
		Settings:       s,
		SettingsSource: source,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer pipe.Close()

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "nougat-mcp",
		Version: version,
	}, nil)
	pipe.RegisterMCP(srv)

	switch transport {
	case "stdio":
		logger.Info("serving MCP over stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	case "http":
		return serveHTTP(ctx, srv, c.String("port"), logger)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or http)", transport)
	}
}

func serveHTTP(ctx context.Context, srv *mcp.Server, port string, logger *slog.Logger) error {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil))

	httpSrv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over http", "port", port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

func convertAction(c *cli.Context) error {
	var data []byte
	var err error
	if c.Args().Present() {
		data, err = os.ReadFile(c.Args().First())
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return err
	}

	s, _ := settings.Load()
	opts := mmd.Options{
		RewriteTags:        s.RewriteTags && !c.Bool("no-tags"),
		FixSizedDelimiters: s.FixSizedDelimiters && !c.Bool("no-sized"),
	}
	_, err = os.Stdout.WriteString(mmd.Convert(string(data), opts))
	return err
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
