package protodesc

import (
	"fmt"
	"sync"

	"google.golang.org/protobuf/types/descriptorpb"
)

// builder drives the admit -> index -> resolve -> validate -> interpret ->
// commit pipeline for one batch of files passed to Pool.AddFiles. It is
// discarded once the batch either fully commits or fails.
type builder struct {
	pool    *Pool
	pending map[string]*descriptorpb.FileDescriptorProto

	mu           sync.Mutex
	builtFiles   map[string]*FileDescriptor
	batchSymbols map[string]Descriptor // symbols contributed by files built so far in this batch
}

// topoSort orders names so that every file appears after its in-batch
// dependencies, detecting missing dependencies and cycles.
func (b *builder) topoSort(names []string) ([]string, error) {
	const (
		white = iota
		grey
		black
	)
	color := map[string]int{}
	var order []string
	var visit func(name string, chain []string) error
	visit = func(name string, chain []string) error {
		switch color[name] {
		case black:
			return nil
		case grey:
			return newError(name, DependencyCycle, "dependency cycle detected: %v", append(chain, name))
		}
		color[name] = grey
		fd := b.pending[name]
		for _, dep := range fd.GetDependency() {
			if b.pool.files[dep] != nil {
				continue // already committed in a prior AddFiles call
			}
			if _, ok := b.pending[dep]; !ok {
				return newError(name, MissingDependency, "missing dependency %q", dep)
			}
			if err := visit(dep, append(chain, name)); err != nil {
				return err
			}
		}
		color[name] = black
		order = append(order, name)
		return nil
	}
	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// buildFile runs phases 2-5 (shallow index, reference resolution,
// validation, option interpretation) for a single file whose dependencies
// have already been built (either in a previous AddFiles call, or earlier
// in this batch).
func (b *builder) buildFile(name string) (*FileDescriptor, error) {
	fdp := b.pending[name]

	deps := make([]*FileDescriptor, len(fdp.GetDependency()))
	for i, depName := range fdp.GetDependency() {
		if d := b.pool.FindFileByPath(depName); d != nil {
			deps[i] = d
			continue
		}
		b.mu.Lock()
		d := b.builtFiles[depName]
		b.mu.Unlock()
		if d == nil {
			return nil, newError(name, MissingDependency, "dependency %q not yet built", depName)
		}
		deps[i] = d
	}

	fd, err := newFileDescriptor(fdp, deps, b.resolve)
	if err != nil {
		return nil, err
	}
	if err := validateFile(fd); err != nil {
		return nil, err
	}
	// Custom option extensions are resolved against fd's own symbols first
	// (an extension declared in the same file), falling back to everything
	// else visible to this batch (already-committed pool symbols plus
	// symbols from files built earlier in the batch) so options whose
	// extension lives in an imported file resolve too.
	optResolve := func(name string) Descriptor {
		if d := fd.FindSymbol(name); d != nil {
			return d
		}
		return b.resolve(name)
	}
	if err := interpretFileOptions(fd, optResolve); err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.builtFiles == nil {
		b.builtFiles = map[string]*FileDescriptor{}
	}
	if b.batchSymbols == nil {
		b.batchSymbols = map[string]Descriptor{}
	}
	b.builtFiles[name] = fd
	for k, v := range fd.symbols {
		b.batchSymbols[k] = v
	}
	b.mu.Unlock()

	return fd, nil
}

// resolve looks up a fully-qualified symbol name (no leading dot) against
// everything visible to this batch: symbols already committed to the pool,
// plus symbols contributed by files already built earlier in this batch.
func (b *builder) resolve(fqName string) Descriptor {
	b.mu.Lock()
	if d, ok := b.batchSymbols[fqName]; ok {
		b.mu.Unlock()
		return d
	}
	b.mu.Unlock()
	return b.pool.FindSymbol(fqName)
}

// symbolsFor returns the full symbol table contributed by the named file,
// for final commit into the pool's global symbol table.
func (b *builder) symbolsFor(name string) map[string]Descriptor {
	b.mu.Lock()
	defer b.mu.Unlock()
	fd := b.builtFiles[name]
	if fd == nil {
		return nil
	}
	return fd.symbols
}

func fullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return fmt.Sprintf("%s.%s", pkg, name)
}
