package prender

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"github.com/quenby/prender/internal/core"
)

// componentExtensions is the fixed resolution order for component
// identifiers: the identifier itself, then .tsx, .jsx, .js.
var componentExtensions = []string{"", ".tsx", ".jsx", ".js"}

type compiledComponent struct {
	script  string
	modTime time.Time
}

// componentCompiler resolves component identifiers to source files and
// memoizes their engine-executable form. Cached entries are reused until
// the source file's mtime moves past the cached artifact's.
type componentCompiler struct {
	root     string
	mu       sync.Mutex
	cache    map[string]compiledComponent
	compiles atomic.Int64 // transforms performed; does not count cache hits
}

func newComponentCompiler(root string) *componentCompiler {
	return &componentCompiler{
		root:  root,
		cache: make(map[string]compiledComponent),
	}
}

// resolve maps a component identifier to an existing source file. The first
// existing path in the fixed extension order wins.
func (c *componentCompiler) resolve(id string) (string, error) {
	tried := make([]string, 0, len(componentExtensions))
	for _, ext := range componentExtensions {
		path := filepath.Join(c.root, id+ext)
		tried = append(tried, path)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", &core.ComponentNotFoundError{ID: id, Tried: tried}
}

// compile returns the engine-executable script for a component identifier,
// transforming at most once per source revision.
func (c *componentCompiler) compile(id string) (string, error) {
	path, err := c.resolve(id)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.cache[id]; ok && !info.ModTime().After(entry.modTime) {
		return entry.script, nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	script, err := transformComponent(string(src), filepath.Ext(path))
	if err != nil {
		return "", fmt.Errorf("compiling %s: %w", id, err)
	}

	c.compiles.Add(1)
	c.cache[id] = compiledComponent{script: script, modTime: info.ModTime()}
	return script, nil
}

// compileCount reports how many transforms have run. Cache hits do not
// increment it.
func (c *componentCompiler) compileCount() int64 {
	return c.compiles.Load()
}

// transformComponent lowers component source to engine-executable script:
// type annotations and interface declarations are stripped, element
// literals are lowered to nested __prender_h calls, and the default export
// is rewritten to the __prender_component global through an IIFE wrapper.
// Import statements are blanked line-by-line first — the rendering
// runtime's globals are ambient, so components have nothing to resolve.
// Multi-line import forms are not supported.
func transformComponent(source, ext string) (string, error) {
	result := esbuild.Transform(stripImports(source), esbuild.TransformOptions{
		Loader:      loaderForExt(ext),
		Format:      esbuild.FormatIIFE,
		GlobalName:  componentGlobal,
		Target:      esbuild.ES2020,
		JSX:         esbuild.JSXTransform,
		JSXFactory:  "__prender_h",
		JSXFragment: "__prender_Fragment",
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Text)
		}
		return "", fmt.Errorf("transform: %s", strings.Join(msgs, "; "))
	}
	return string(result.Code), nil
}

// stripImports blanks top-level import lines, preserving line numbers so
// transform diagnostics still point at the right place.
func stripImports(source string) string {
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "import ") || strings.HasPrefix(t, "import{") || strings.HasPrefix(t, "import*") {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

func loaderForExt(ext string) esbuild.Loader {
	switch ext {
	case ".tsx":
		return esbuild.LoaderTSX
	case ".ts":
		return esbuild.LoaderTS
	case ".jsx":
		return esbuild.LoaderJSX
	default:
		return esbuild.LoaderJS
	}
}
