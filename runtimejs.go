package prender

import (
	"fmt"

	"github.com/quenby/prender/internal/core"
)

// componentGlobal is the identifier the compiled component's default export
// is rewritten to.
const componentGlobal = "__prender_component"

// bundleGlobal is the identifier the prebuilt server bundle's exports are
// rewritten to.
const bundleGlobal = "__prender_bundle"

// hookResetJS clears the hook frame. The context is reused across renders,
// so the pipeline evaluates this at the start of every render.
const hookResetJS = "__prender_hooks.reset();"

// polyfillsJS provides the host-API stand-ins the embedded engine lacks.
// Scheduling is synchronous by design: a server render is single-pass, so
// setImmediate and queueMicrotask run their callbacks inline.
const polyfillsJS = `
(function() {

if (typeof globalThis.queueMicrotask !== 'function') {
	globalThis.queueMicrotask = function(cb) { cb(); };
}

globalThis.setImmediate = function(cb) { cb(); return 0; };
globalThis.clearImmediate = function() {};

if (typeof globalThis.TextEncoder === 'undefined') {
	globalThis.TextEncoder = function TextEncoder() {};
	globalThis.TextEncoder.prototype.encode = function(s) {
		var raw = unescape(encodeURIComponent(String(s)));
		var out = new Uint8Array(raw.length);
		for (var i = 0; i < raw.length; i++) out[i] = raw.charCodeAt(i);
		return out;
	};
}

if (typeof globalThis.TextDecoder === 'undefined') {
	globalThis.TextDecoder = function TextDecoder() {};
	globalThis.TextDecoder.prototype.decode = function(buf) {
		var bytes = buf instanceof Uint8Array ? buf : new Uint8Array(buf);
		var raw = '';
		for (var i = 0; i < bytes.length; i++) raw += String.fromCharCode(bytes[i]);
		return decodeURIComponent(escape(raw));
	};
}

})();
`

// renderRuntimeJS defines the element constructor, the hook stand-ins, and
// the tree walker that serializes an element tree to HTML. Injected once
// per context, before any component script runs.
const renderRuntimeJS = `
(function() {

var VOID_ELEMENTS = {
	area: 1, base: 1, br: 1, col: 1, embed: 1, hr: 1, img: 1,
	input: 1, link: 1, meta: 1, param: 1, source: 1, track: 1, wbr: 1
};

var ATTRIBUTE_ALIASES = { className: 'class', htmlFor: 'for' };

function escapeHTML(s) {
	return String(s)
		.replace(/&/g, '&amp;')
		.replace(/</g, '&lt;')
		.replace(/>/g, '&gt;')
		.replace(/"/g, '&quot;')
		.replace(/'/g, '&#39;');
}

function styleToCSS(style) {
	var out = [];
	for (var k in style) {
		if (!Object.prototype.hasOwnProperty.call(style, k)) continue;
		var name = k.replace(/[A-Z]/g, function(c) { return '-' + c.toLowerCase(); });
		out.push(name + ':' + style[k]);
	}
	return out.join(';');
}

globalThis.__prender_Fragment = { __prenderFragment: true };

globalThis.__prender_h = function(type, props) {
	var children = [];
	for (var i = 2; i < arguments.length; i++) children.push(arguments[i]);
	return { type: type, props: props || {}, children: children };
};

// Hook state is an explicit frame, reset by the walker on entry and by the
// pipeline before each render. A single-pass server render never re-invokes
// a component, so setters are inert and effects never fire.
globalThis.__prender_hooks = {
	index: 0,
	slots: [],
	reset: function() { this.index = 0; this.slots = []; }
};

globalThis.useState = function(initial) {
	var hooks = globalThis.__prender_hooks;
	var i = hooks.index++;
	if (!(i in hooks.slots)) {
		hooks.slots[i] = (typeof initial === 'function') ? initial() : initial;
	}
	return [hooks.slots[i], function() {}];
};
globalThis.useEffect = function() {};
globalThis.useLayoutEffect = function() {};
globalThis.useMemo = function(fn) { return fn(); };
globalThis.useCallback = function(fn) { return fn; };
globalThis.useRef = function(initial) { return { current: initial }; };

function renderNode(node) {
	if (node === null || node === undefined || node === false || node === true) return '';
	if (typeof node === 'string' || typeof node === 'number') return escapeHTML(node);
	if (Array.isArray(node)) {
		var out = '';
		for (var i = 0; i < node.length; i++) out += renderNode(node[i]);
		return out;
	}

	var type = node.type;
	var props = node.props || {};
	var children = node.children || [];

	if (type === globalThis.__prender_Fragment) return renderNode(children);

	if (typeof type === 'function') {
		var merged = {};
		for (var k in props) {
			if (Object.prototype.hasOwnProperty.call(props, k)) merged[k] = props[k];
		}
		if (children.length > 0) {
			merged.children = children.length === 1 ? children[0] : children;
		}
		return renderNode(type(merged));
	}

	var html = '<' + type;
	var rawInner = null;
	for (var name in props) {
		if (!Object.prototype.hasOwnProperty.call(props, name)) continue;
		var value = props[name];
		if (name === 'children' || value === null || value === undefined) continue;
		if (name === 'dangerouslySetInnerHTML') {
			if (value && typeof value.__html === 'string') rawInner = value.__html;
			continue;
		}
		if (name === 'style' && typeof value === 'object') {
			html += ' style="' + escapeHTML(styleToCSS(value)) + '"';
			continue;
		}
		var attr = ATTRIBUTE_ALIASES[name] || name;
		if (value === true) { html += ' ' + attr; continue; }
		if (value === false) continue;
		html += ' ' + attr + '="' + escapeHTML(value) + '"';
	}

	// Void elements are self-closing and childless no matter what was passed.
	if (VOID_ELEMENTS[type]) return html + ' />';

	html += '>';
	html += rawInner !== null ? rawInner : renderNode(children);
	return html + '</' + type + '>';
}

globalThis.__prender_renderToString = function(node) {
	globalThis.__prender_hooks.reset();
	return renderNode(node);
};

})();
`

// injectRenderRuntime evaluates the polyfills and the rendering runtime.
// Called at most once per context, lazily on the first render.
func injectRenderRuntime(rt core.JSRuntime) error {
	if err := rt.Eval(polyfillsJS, "prender/polyfills.js"); err != nil {
		return fmt.Errorf("evaluating polyfills: %w", err)
	}
	if err := rt.Eval(renderRuntimeJS, "prender/runtime.js"); err != nil {
		return fmt.Errorf("evaluating render runtime: %w", err)
	}
	ok, err := rt.EvalBool("typeof globalThis.__prender_renderToString === 'function'", "prender/runtime-check.js")
	if err != nil || !ok {
		return fmt.Errorf("render runtime did not install")
	}
	return nil
}
