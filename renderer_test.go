package prender

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func newDevRenderer(t *testing.T, dir string) *Renderer {
	t.Helper()
	r, err := New(Config{Mode: ModeDevelopment, AppDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

// findByID walks a parsed document for an element with the given id.
func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func TestRender_HelloProps(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "hello.tsx", `export default function Hello(props) {
	return <h1>Hello {props.name}</h1>;
}`)

	r := newDevRenderer(t, dir)
	doc, err := r.Render("hello", map[string]any{"name": "Ada"}, RenderOptions{Title: "Greeting"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.Contains(doc, "<h1>Hello Ada</h1>") {
		t.Errorf("document missing rendered markup:\n%s", doc)
	}
	if !strings.Contains(doc, "<title>Greeting</title>") {
		t.Error("document missing title")
	}
	if !strings.Contains(doc, `window.__PRENDER_PROPS__ = {"name":"Ada"}`) {
		t.Error("document missing props payload")
	}

	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("document does not parse as HTML: %v", err)
	}
	mount := findByID(root, "prender-root")
	if mount == nil {
		t.Fatal("document has no #prender-root mount point")
	}
	if mount.Data != "div" {
		t.Errorf("mount point is <%s>, want <div>", mount.Data)
	}
}

func TestRender_EscapesPropsInMarkup(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "echo.tsx", `export default function Echo(props) {
	return <p>{props.text}</p>;
}`)

	r := newDevRenderer(t, dir)
	doc, err := r.Render("echo", map[string]any{"text": "<b>bold</b>"}, RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(doc, "&lt;b&gt;bold&lt;/b&gt;") {
		t.Errorf("prop text was not escaped:\n%s", doc)
	}
	if strings.Contains(doc, "<p><b>") {
		t.Error("prop text was injected as markup")
	}
}

func TestRender_VoidAndBooleanAttributes(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "signup.tsx", `export default function Signup() {
	return (
		<form className="signup" style={{ marginTop: "4px", backgroundColor: "red" }}>
			<label htmlFor="email">Email</label>
			<input id="email" disabled={true} hidden={false} />
			<br />
		</form>
	);
}`)

	r := newDevRenderer(t, dir)
	doc, err := r.Render("signup", nil, RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !strings.Contains(doc, `<form class="signup" style="margin-top:4px;background-color:red">`) {
		t.Errorf("className/style props were not translated:\n%s", doc)
	}
	if !strings.Contains(doc, `<label for="email">Email</label>`) {
		t.Error("htmlFor was not translated to for")
	}
	if !strings.Contains(doc, `<input id="email" disabled />`) {
		t.Errorf("true boolean attribute not rendered bare on a self-closing void element:\n%s", doc)
	}
	if strings.Contains(doc, "hidden") {
		t.Error("false boolean attribute was rendered")
	}
	if !strings.Contains(doc, "<br />") {
		t.Error("void element not rendered self-closing")
	}
	if strings.Contains(doc, "</br>") || strings.Contains(doc, "</input>") {
		t.Error("void element got a closing tag")
	}
	if strings.Contains(doc, "className") || strings.Contains(doc, "htmlFor") {
		t.Error("aliased prop names leaked into markup")
	}
}

func TestRender_VoidElementsIgnoreChildren(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "rule.tsx", `export default function Rule() {
	return __prender_h('hr', null, 'stray child');
}`)

	r := newDevRenderer(t, dir)
	doc, err := r.Render("rule", nil, RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(doc, "<hr />") {
		t.Errorf("void element not rendered self-closing:\n%s", doc)
	}
	if strings.Contains(doc, "stray child") {
		t.Error("void element rendered its children")
	}
}

func TestRender_FragmentAndRawHTML(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "mixed.tsx", `export default function Mixed() {
	return (
		<>
			<p>first</p>
			<span dangerouslySetInnerHTML={{ __html: "<em>raw</em>" }} />
		</>
	);
}`)

	r := newDevRenderer(t, dir)
	doc, err := r.Render("mixed", nil, RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// The fragment itself emits no wrapper element.
	if !strings.Contains(doc, "<p>first</p><span><em>raw</em></span>") {
		t.Errorf("fragment or raw-HTML output wrong:\n%s", doc)
	}
	if strings.Contains(doc, "&lt;em&gt;") {
		t.Error("dangerouslySetInnerHTML content was escaped")
	}
}

func TestRender_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "page.tsx", `export default function Page(props) {
	return <section><h2>{props.heading}</h2><p>body</p></section>;
}`)

	r := newDevRenderer(t, dir)
	props := map[string]any{"heading": "Stable"}

	first, err := r.Render("page", props, RenderOptions{Title: "t"})
	if err != nil {
		t.Fatalf("first Render: %v", err)
	}
	second, err := r.Render("page", props, RenderOptions{Title: "t"})
	if err != nil {
		t.Fatalf("second Render: %v", err)
	}
	if first != second {
		t.Error("identical renders produced different documents")
	}
	if n := r.CompileCount(); n != 1 {
		t.Errorf("CompileCount = %d, want 1 (second render should hit the cache)", n)
	}
}

func TestRender_HookStateResetBetweenRenders(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "counter.tsx", `export default function Counter() {
	const [n] = useState(1);
	return <span>{n}</span>;
}`)

	r := newDevRenderer(t, dir)
	for i := 0; i < 3; i++ {
		doc, err := r.Render("counter", nil, RenderOptions{})
		if err != nil {
			t.Fatalf("Render %d: %v", i, err)
		}
		if !strings.Contains(doc, "<span>1</span>") {
			t.Fatalf("render %d saw stale hook state:\n%s", i, doc)
		}
	}
}

func TestRender_NilPropsBecomeEmptyObject(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "plain.tsx", `export default function Plain() {
	return <div>static</div>;
}`)

	r := newDevRenderer(t, dir)
	doc, err := r.Render("plain", nil, RenderOptions{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(doc, "window.__PRENDER_PROPS__ = {}") {
		t.Errorf("nil props did not serialize as an empty object:\n%s", doc)
	}
}

func TestRender_DevErrorDocument(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "broken.tsx", `export default function Broken() {
	throw new Error('render exploded');
}`)

	r := newDevRenderer(t, dir)
	doc, err := r.Render("broken", nil, RenderOptions{})
	if err != nil {
		t.Fatalf("development mode should render the error, got: %v", err)
	}
	if !strings.Contains(doc, "render exploded") {
		t.Errorf("error document missing the exception text:\n%s", doc)
	}
	if !strings.Contains(doc, "prender-error") {
		t.Error("error document missing the error block")
	}
	if !strings.Contains(doc, ReloadPath) {
		t.Error("error document missing the live-reload client")
	}
}

func TestRender_ComponentNotFound(t *testing.T) {
	r := newDevRenderer(t, t.TempDir())

	_, err := r.Render("ghost", nil, RenderOptions{})
	var notFound *ComponentNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *ComponentNotFoundError, got %T: %v", err, err)
	}
}

func TestRender_NoDefaultExport(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "noexport.tsx", `export const name = 'not a component';`)

	r := newDevRenderer(t, dir)
	doc, err := r.Render("noexport", nil, RenderOptions{})
	if err != nil {
		t.Fatalf("development mode should render the error, got: %v", err)
	}
	if !strings.Contains(doc, "no default export") {
		t.Errorf("error document missing the export diagnostic:\n%s", doc)
	}
}

func TestRender_AfterClose(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "page.tsx", `export default () => <div />;`)

	r, err := New(Config{Mode: ModeDevelopment, AppDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Close()
	r.Close() // idempotent

	if _, err := r.Render("page", nil, RenderOptions{}); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("Render after Close = %v, want ErrRendererClosed", err)
	}
}

func writeTestBundle(t *testing.T, dir, body string) Config {
	t.Helper()
	dist := filepath.Join(dir, "dist")
	if err := os.MkdirAll(dist, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	bundle := `var ` + bundleGlobal + ` = (function() {
	return { default: function(path, props) { ` + body + ` } };
})();`
	bundlePath := filepath.Join(dist, "bundle.server.js")
	if err := os.WriteFile(bundlePath, []byte(bundle), 0o644); err != nil {
		t.Fatalf("writing bundle: %v", err)
	}
	return Config{
		Mode:         ModeProduction,
		BundlePath:   bundlePath,
		ManifestPath: filepath.Join(dist, "manifest.json"),
	}
}

func TestRender_ProductionBundle(t *testing.T) {
	cfg := writeTestBundle(t, t.TempDir(),
		`return __prender_h('main', null, 'page for ' + path + ', user ' + props.user);`)

	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	doc, err := r.Render("/about", map[string]any{"user": "Ada"}, RenderOptions{Title: "About"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(doc, "<main>page for /about, user Ada</main>") {
		t.Errorf("bundle render output missing:\n%s", doc)
	}
	if !strings.Contains(doc, `window.__PRENDER_PATH__ = "/about"`) {
		t.Error("document missing route path payload")
	}
	// No manifest on disk, so the default asset paths apply.
	if !strings.Contains(doc, defaultBundleJS) {
		t.Error("document missing default client bundle reference")
	}
	if strings.Contains(doc, ReloadPath) {
		t.Error("production document must not embed the live-reload client")
	}
}

func TestRender_ProductionPropagatesScriptError(t *testing.T) {
	cfg := writeTestBundle(t, t.TempDir(), `throw new Error('prod boom');`)

	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	_, err = r.Render("/", nil, RenderOptions{})
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("expected *ScriptError, got %T: %v", err, err)
	}
	if !strings.Contains(scriptErr.Message, "prod boom") {
		t.Errorf("message %q missing the thrown text", scriptErr.Message)
	}
}

func TestNew_ProductionWithoutBundle(t *testing.T) {
	_, err := New(Config{
		Mode:       ModeProduction,
		BundlePath: filepath.Join(t.TempDir(), "nope", "bundle.server.js"),
	})
	var missing *BundleMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *BundleMissingError, got %T: %v", err, err)
	}
}
