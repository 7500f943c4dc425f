package strand

// EncodePlugin converts application values into a tagged record of
// sub-values. Plugins are consulted in order before the built-in kind table;
// the first plugin to claim a value wins, so a plugin registered earlier can
// override built-in encodings.
//
// Values claimed by a plugin are deduplicated by identity, like built-in
// containers; custom value types must be comparable, which in practice means
// pointer types.
type EncodePlugin interface {
	// Encode inspects v. If the plugin claims it, Encode returns the tag, the
	// ordered sub-values, and ok=true. The tag must match a decoder plugin
	// registered at the receiver.
	Encode(v Value) (tag string, children []Value, ok bool, err error)
}

// DecodePlugin reconstructs application values from a tag and its hydrated
// sub-values. Plugins are consulted in order; the first to claim a tag wins.
type DecodePlugin interface {
	// Decode receives the tag and the hydrated children in the order the
	// encoder plugin produced them. If the plugin claims the tag it returns
	// the value and ok=true.
	Decode(tag string, children []Value) (v Value, ok bool, err error)
}

// EncodePluginFunc adapts a function to EncodePlugin.
type EncodePluginFunc func(v Value) (string, []Value, bool, error)

func (f EncodePluginFunc) Encode(v Value) (string, []Value, bool, error) { return f(v) }

// DecodePluginFunc adapts a function to DecodePlugin.
type DecodePluginFunc func(tag string, children []Value) (Value, bool, error)

func (f DecodePluginFunc) Decode(tag string, children []Value) (Value, bool, error) {
	return f(tag, children)
}
