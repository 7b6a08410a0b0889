// Package beamfile reads BEAM compiled-module containers: an IFF-style
// envelope holding named, length-prefixed binary chunks, one of which is the
// atom table the other chunks reference by 1-based index.
//
// Opening a file parses the envelope and builds a chunk index without reading
// any chunk bodies. Chunk bodies are read lazily, either raw or through typed
// decoders once the atom table has been indexed:
//
//	f, err := beamfile.Open[string]("ebin/example.beam")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	if err := f.IndexAtoms(beamfile.Strings{}); err != nil {
//	    return err
//	}
//	imports, err := f.ReadImports()
//
// # Interning
//
// Atom names pass through a pluggable [Interner], so callers choose the
// allocation strategy. [Strings] allocates an owned string per atom;
// [Handles] deduplicates across files via the unique package. The file never
// inspects the interned representation.
//
// # Concurrency
//
// A File owns its stream's seek cursor exclusively: its methods must not be
// called concurrently, and a RawChunks iteration must finish before other
// reads. For parallel work give each goroutine its own File (see [Loader]).
package beamfile
