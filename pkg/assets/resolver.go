package assets

// Resolver turns source asset names into full URLs.
type Resolver interface {
	// Asset resolves a source asset name to its full URL, including the
	// serving origin, public prefix, and any fingerprinted filename.
	Asset(source string) string

	// Entry returns the full URL of the bundle entry point. The hash
	// component always comes from build metadata: either a fingerprinted
	// filename or a version query derived from the build hash.
	Entry() string
}

// manifestResolver wraps a Manifest to implement Resolver.
type manifestResolver struct {
	manifest *Manifest
	entry    string
}

// NewResolver creates a Resolver from a Manifest.
//
// Example:
//
//	manifest, _ := assets.Load("dist/manifest.json")
//	resolver := assets.NewResolver(manifest)
//	resolver.Asset("app.js") // "http://127.0.0.1:8096/static/app.9f2c4a1b.js"
func NewResolver(m *Manifest) Resolver {
	return &manifestResolver{manifest: m, entry: DefaultEntry}
}

// NewEntryResolver creates a Resolver with a non-default entry name.
func NewEntryResolver(m *Manifest, entry string) Resolver {
	if entry == "" {
		entry = DefaultEntry
	}
	return &manifestResolver{manifest: m, entry: entry}
}

func (r *manifestResolver) Asset(source string) string {
	return r.manifest.Origin() + r.manifest.Prefix() + r.manifest.Resolve(source)
}

func (r *manifestResolver) Entry() string {
	url := r.Asset(r.entry)

	// When the entry is not fingerprinted (dev mode serves it under its
	// plain name), version it with the build hash instead.
	if r.manifest.Resolve(r.entry) == r.entry {
		if hash := r.manifest.Hash(); hash != "" {
			short := hash
			if len(short) > 8 {
				short = short[:8]
			}
			url += "?v=" + short
		}
	}
	return url
}

// passthrough returns names unchanged under a fixed base URL.
type passthrough struct {
	base  string
	entry string
}

// NewPassthroughResolver creates a resolver that prepends a base URL and
// resolves nothing. Useful in tests and where no manifest exists yet.
func NewPassthroughResolver(base string) Resolver {
	return &passthrough{base: base, entry: DefaultEntry}
}

func (p *passthrough) Asset(source string) string {
	return p.base + source
}

func (p *passthrough) Entry() string {
	return p.base + p.entry
}
