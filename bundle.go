package prender

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	esbuild "github.com/evanw/esbuild/pkg/api"

	"github.com/quenby/prender/internal/core"
)

// Default asset paths used when no manifest was written by the build step.
const (
	defaultBundleJS  = "/bundle.js"
	defaultBundleCSS = "/bundle.css"
)

// assetManifest is the JSON file the build step writes next to the bundle.
type assetManifest struct {
	Main struct {
		JS  string `json:"js"`
		CSS string `json:"css"`
	} `json:"main"`
}

// loadBundle reads the prebuilt server bundle and the asset manifest. A
// missing bundle is BundleMissingError; a missing manifest falls back to
// the default asset paths.
func loadBundle(bundlePath, manifestPath string) (string, AssetRefs, error) {
	script, err := os.ReadFile(bundlePath)
	if err != nil {
		return "", AssetRefs{}, &core.BundleMissingError{Path: bundlePath}
	}

	assets := AssetRefs{JS: defaultBundleJS, CSS: defaultBundleCSS}
	data, err := os.ReadFile(manifestPath)
	if err == nil {
		var man assetManifest
		if err := json.Unmarshal(data, &man); err != nil {
			return "", AssetRefs{}, fmt.Errorf("parsing asset manifest %s: %w", manifestPath, err)
		}
		if man.Main.JS != "" {
			assets.JS = man.Main.JS
		}
		if man.Main.CSS != "" {
			assets.CSS = man.Main.CSS
		}
	}

	return string(script), assets, nil
}

// BuildOptions configures the production build step.
type BuildOptions struct {
	// Entry is the application's bundle entry module. Its default export
	// is the render entry point: (path, props) => element tree.
	Entry string

	// OutDir receives bundle.server.js, manifest.json, and assets/.
	OutDir string

	Minify bool
}

// BuildBundle produces the artifacts consumed by production mode: the
// server bundle, hashed client assets with brotli-precompressed siblings,
// and the JSON asset manifest.
func BuildBundle(opts BuildOptions) error {
	if opts.Entry == "" {
		return fmt.Errorf("build: entry module is required")
	}
	if opts.OutDir == "" {
		opts.OutDir = "dist"
	}
	if err := os.MkdirAll(filepath.Join(opts.OutDir, "assets"), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	server := esbuild.Build(esbuild.BuildOptions{
		EntryPoints:       []string{opts.Entry},
		Bundle:            true,
		Write:             false,
		Format:            esbuild.FormatIIFE,
		GlobalName:        bundleGlobal,
		Platform:          esbuild.PlatformBrowser,
		Target:            esbuild.ES2020,
		JSX:               esbuild.JSXTransform,
		JSXFactory:        "__prender_h",
		JSXFragment:       "__prender_Fragment",
		MinifyWhitespace:  opts.Minify,
		MinifySyntax:      opts.Minify,
		MinifyIdentifiers: opts.Minify,
	})
	if err := buildError("server bundle", server.Errors); err != nil {
		return err
	}
	if len(server.OutputFiles) == 0 {
		return fmt.Errorf("server bundle build produced no output")
	}
	serverPath := filepath.Join(opts.OutDir, "bundle.server.js")
	if err := os.WriteFile(serverPath, server.OutputFiles[0].Contents, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", serverPath, err)
	}

	client := esbuild.Build(esbuild.BuildOptions{
		EntryPoints:       []string{opts.Entry},
		Bundle:            true,
		Write:             false,
		EntryNames:        "[name]-[hash]",
		Format:            esbuild.FormatESModule,
		Platform:          esbuild.PlatformBrowser,
		Target:            esbuild.ES2020,
		JSX:               esbuild.JSXTransform,
		JSXFactory:        "__prender_h",
		JSXFragment:       "__prender_Fragment",
		MinifyWhitespace:  opts.Minify,
		MinifySyntax:      opts.Minify,
		MinifyIdentifiers: opts.Minify,
	})
	if err := buildError("client bundle", client.Errors); err != nil {
		return err
	}

	var man assetManifest
	for _, out := range client.OutputFiles {
		name := filepath.Base(out.Path)
		path := filepath.Join(opts.OutDir, "assets", name)
		if err := os.WriteFile(path, out.Contents, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if err := writeBrotli(path, out.Contents); err != nil {
			return err
		}
		switch filepath.Ext(name) {
		case ".js":
			man.Main.JS = "/assets/" + name
		case ".css":
			man.Main.CSS = "/assets/" + name
		}
	}

	manData, err := json.MarshalIndent(&man, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	manPath := filepath.Join(opts.OutDir, "manifest.json")
	if err := os.WriteFile(manPath, manData, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", manPath, err)
	}

	return nil
}

// writeBrotli writes a precompressed .br sibling so the asset can be served
// with Content-Encoding: br without compressing per request.
func writeBrotli(path string, data []byte) error {
	f, err := os.Create(path + ".br")
	if err != nil {
		return fmt.Errorf("creating %s.br: %w", path, err)
	}
	w := brotli.NewWriterLevel(f, brotli.BestCompression)
	if _, err := w.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("compressing %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flushing %s.br: %w", path, err)
	}
	return f.Close()
}

func buildError(stage string, errs []esbuild.Message) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Text)
	}
	return fmt.Errorf("building %s: %s", stage, strings.Join(msgs, "; "))
}
