package prender

// RenderOptions carries per-render document metadata.
type RenderOptions struct {
	Title       string
	Description string
	MetaTags    map[string]string
}

// AssetRefs holds the client asset paths referenced by assembled documents
// in production mode.
type AssetRefs struct {
	JS  string
	CSS string
}
