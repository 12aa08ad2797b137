package prender

import (
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/quenby/prender/internal/core"
)

// pageTemplate is the HTML shell every successful render is wrapped in. The
// component markup goes in unmodified; everything else (title, metas, props
// payload) is escaped for its position.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>{{.Title}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}" />
{{- end}}
{{- range $name, $content := .MetaTags}}
<meta name="{{$name}}" content="{{$content}}" />
{{- end}}
{{- if .CSS}}
<link rel="stylesheet" href="{{.CSS}}" />
{{- end}}
</head>
<body>
<div id="prender-root">{{.Body}}</div>
<script>window.__PRENDER_PROPS__ = {{.Props}};{{if .Path}}window.__PRENDER_PATH__ = {{.Path}};{{end}}</script>
{{- if .JS}}
<script type="module" src="{{.JS}}"></script>
{{- end}}
{{- if .Reload}}
<script>{{.Reload}}</script>
{{- end}}
</body>
</html>
`))

type pageData struct {
	Title       string
	Description string
	MetaTags    map[string]string
	CSS         string
	JS          string

	// Body is the engine's markup output; already escaped by the walker.
	Body template.HTML

	// Props and Path are pre-escaped for inline <script> position.
	Props  template.JS
	Path   template.JS
	Reload template.JS
}

// assembleDocument wraps rendered component markup in the full HTML shell.
// Production mode links the hashed client assets; development mode embeds
// the live-reload client instead.
func assembleDocument(markup string, propsJSON []byte, path string, opts RenderOptions, assets AssetRefs, mode Mode) (string, error) {
	data := pageData{
		Title:       opts.Title,
		Description: opts.Description,
		MetaTags:    opts.MetaTags,
		Body:        template.HTML(markup),
		Props:       template.JS(escapeInlineJSON(string(propsJSON))),
	}
	if data.Title == "" {
		data.Title = path
	}
	if data.Title == "" {
		data.Title = "prender"
	}

	if mode == ModeProduction {
		data.CSS = assets.CSS
		data.JS = assets.JS
		data.Path = template.JS(jsEscape(path))
	} else {
		data.Reload = template.JS(reloadClientJS)
	}

	var b strings.Builder
	if err := pageTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("assembling document: %w", err)
	}
	return b.String(), nil
}

// assembleErrorDocument renders a script error as a standalone page. Served
// in development mode only; the exception text is shown verbatim (escaped)
// and the live-reload client is embedded so fixing the source refreshes the
// page.
func assembleErrorDocument(scriptErr *core.ScriptError) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>Render error</title>
<style>
body { font-family: monospace; background: #1e1e1e; color: #e0e0e0; padding: 2rem; }
h1 { color: #ff6b6b; font-size: 1.2rem; }
pre.prender-error { background: #2a2a2a; padding: 1rem; border-left: 3px solid #ff6b6b; overflow-x: auto; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Render error</h1>
`)
	if scriptErr.Label != "" {
		fmt.Fprintf(&b, "<p>in <code>%s</code></p>\n", html.EscapeString(scriptErr.Label))
	}
	fmt.Fprintf(&b, "<pre class=\"prender-error\">%s</pre>\n", html.EscapeString(scriptErr.Message))
	b.WriteString("<script>")
	b.WriteString(reloadClientJS)
	b.WriteString("</script>\n</body>\n</html>\n")
	return b.String()
}
