package beamfile

import "unique"

// Interner turns decoded atom names into the representation stored in the
// atom table. The file treats the produced values as opaque; ownership and
// sharing are entirely the strategy's business.
//
// Implementations must not reorder: InternMany returns one value per name,
// in the given order.
type Interner[A any] interface {
	// Intern converts a single name.
	Intern(name string) A

	// InternMany converts a batch of names. A batch entry point lets
	// implementations that synchronize avoid per-name locking.
	InternMany(names []string) []A
}

// Strings is the naive interning strategy: every atom is an owned string.
type Strings struct{}

func (Strings) Intern(name string) string { return name }

func (Strings) InternMany(names []string) []string {
	atoms := make([]string, len(names))
	copy(atoms, names)
	return atoms
}

// Handles interns atoms through the unique package, so equal names share one
// canonical handle process-wide. Comparing handles is a pointer comparison,
// which makes this the right strategy when many files are loaded together.
type Handles struct{}

func (Handles) Intern(name string) unique.Handle[string] {
	return unique.Make(name)
}

func (Handles) InternMany(names []string) []unique.Handle[string] {
	atoms := make([]unique.Handle[string], len(names))
	for i, name := range names {
		atoms[i] = unique.Make(name)
	}
	return atoms
}
