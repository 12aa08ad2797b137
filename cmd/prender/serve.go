package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/quenby/prender"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rendered components over HTTP",
	Long: `Serve components over HTTP. In development mode (the default),
components are compiled from --app-dir per request and documents carry a
live-reload client that refreshes when source files change. In production
mode the prebuilt bundle from 'prender build' is used and hashed client
assets are served from --dist.`,
	PreRunE: bindFlags,
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("mode", "development", "render mode (development or production)")
	serveCmd.Flags().String("app-dir", ".", "component source root")
	serveCmd.Flags().String("dist", "dist", "build output directory (production mode)")
	serveCmd.Flags().Int("pool", 4, "renderer pool size")
	serveCmd.Flags().Int("memory-limit", 0, "engine heap limit in MB (0 = engine default)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	mode := prender.Mode(viper.GetString("mode"))
	appDir := viper.GetString("app-dir")
	dist := viper.GetString("dist")

	cfg := prender.Config{
		Mode:          mode,
		AppDir:        appDir,
		BundlePath:    filepath.Join(dist, "bundle.server.js"),
		ManifestPath:  filepath.Join(dist, "manifest.json"),
		MemoryLimitMB: viper.GetInt("memory-limit"),
	}

	pool, err := prender.NewPool(viper.GetInt("pool"), cfg)
	if err != nil {
		return fmt.Errorf("starting renderer pool: %w", err)
	}
	defer pool.Dispose()

	mux := http.NewServeMux()

	if mode == prender.ModeProduction {
		assets := http.StripPrefix("/assets/", http.FileServer(http.Dir(filepath.Join(dist, "assets"))))
		mux.Handle("/assets/", assets)
	} else {
		hub := prender.NewReloadHub(log)
		watcher, err := prender.NewWatcher(appDir, hub, log)
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer watcher.Close()
		mux.Handle(prender.ReloadPath, hub)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		component := componentForPath(r.URL.Path)
		props := propsFromQuery(r)
		doc, err := pool.Render(component, props, prender.RenderOptions{Title: component})
		if err != nil {
			var notFound *prender.ComponentNotFoundError
			if errors.As(err, &notFound) {
				http.NotFound(w, r)
				return
			}
			log.Error("render failed", zap.String("component", component), zap.Error(err))
			http.Error(w, "internal render error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(doc))
	})

	srv := &http.Server{Addr: viper.GetString("addr"), Handler: mux}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-done
		log.Info("shutting down")
		srv.Close()
	}()

	log.Info("listening",
		zap.String("addr", srv.Addr),
		zap.String("mode", string(mode)),
		zap.String("app_dir", appDir))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// componentForPath maps a request path to a component identifier by
// convention: "/" renders "index", "/about" renders "about",
// "/docs/intro" renders "docs/intro".
func componentForPath(path string) string {
	p := strings.Trim(path, "/")
	if p == "" {
		return "index"
	}
	return p
}

// propsFromQuery turns query parameters into string props. Repeated keys
// keep the first value.
func propsFromQuery(r *http.Request) map[string]any {
	props := make(map[string]any)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			props[k] = vs[0]
		}
	}
	return props
}
