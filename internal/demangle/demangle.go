// Package demangle defines the pluggable interface for turning a raw
// symbol-table name into a human-readable function name. Demangling
// itself (C++ name mangling, Rust's v0 scheme, and so on) is treated as an
// external concern: no implementation beyond a passthrough default ships
// here.
package demangle

// Demangler turns a raw symbol name into a display name.
type Demangler interface {
	Demangle(name string) string
}

// Noop returns every name unchanged, the same fallback the original tool
// used whenever its demangler failed: keep the raw name rather than drop
// it.
type Noop struct{}

func (Noop) Demangle(name string) string { return name }
