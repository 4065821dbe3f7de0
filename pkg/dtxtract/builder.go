package dtxtract

// Builder is the entry point of the fluent API, returned by From(). It
// accumulates a format, a spec document, and extraction options, mirroring
// the teacher's shaker.Builder/IncludeBuilder split but folded into a
// single chain since extraction (unlike shake) has only one terminal mode.
type Builder struct {
	input    []byte
	format   string
	specDoc  map[string]any
	opts     Options
	sink     WarnSink
	current  *CurrentDate
	linkExt  LinkExtension
	buildOpt BuildOptions
}

// From starts a fluent builder over the given raw input bytes.
func From(input []byte) *Builder {
	return &Builder{input: input, format: "html"}
}

// Format sets the input format ("html" or "json"). Defaults to "html".
func (b *Builder) Format(format string) *Builder {
	b.format = format
	return b
}

// Spec sets the raw spec document to compile.
func (b *Builder) Spec(doc map[string]any) *Builder {
	b.specDoc = doc
	return b
}

// WithOptions sets the Extract call's Options.
func (b *Builder) WithOptions(opts Options) *Builder {
	b.opts = opts
	return b
}

// WithBuildOptions sets the tree-construction options.
func (b *Builder) WithBuildOptions(opts BuildOptions) *Builder {
	b.buildOpt = opts
	return b
}

// WithWarnSink routes extraction warnings to sink.
func (b *Builder) WithWarnSink(sink WarnSink) *Builder {
	b.sink = sink
	return b
}

// WithCurrentDate overrides the current-date anchor used by date/time type
// coercions. Tests should always set this explicitly rather than rely on
// wall-clock time (spec §8 determinism).
func (b *Builder) WithCurrentDate(current *CurrentDate) *Builder {
	b.current = current
	return b
}

// WithLinkExtension registers a host extension for link-function ids >= 100.
func (b *Builder) WithLinkExtension(ext LinkExtension) *Builder {
	b.linkExt = ext
	return b
}

// Extract compiles the spec, builds the tree, and runs the extractor,
// returning the produced records.
func (b *Builder) Extract() ([]*Record, error) {
	sp, err := CompileSpec(b.specDoc)
	if err != nil {
		return nil, err
	}
	t, err := BuildTree(b.format, b.input, b.buildOpt)
	if err != nil {
		return nil, err
	}
	var reg *WarnRegistry
	if b.sink != nil {
		reg = NewWarnRegistry(b.sink)
	}
	return Extract(t, sp, b.opts, reg, b.current, b.linkExt)
}

// MustExtract is like Extract but panics on error.
func (b *Builder) MustExtract() []*Record {
	records, err := b.Extract()
	if err != nil {
		panic(err)
	}
	return records
}
