package protodesc

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/descriptorpb"
)

// field numbers within FileDescriptorProto/DescriptorProto/etc, used to
// build source_code_info paths. protoc-gen-go never emits these as named
// constants, so (like the teacher) we hard-code them here.
const (
	fileMessagesTag = 4
	fileEnumsTag    = 5
	fileServicesTag = 6
	fileExtTag      = 7

	messageFieldsTag  = 2
	messageNestedTag  = 3
	messageEnumsTag   = 4
	messageExtRangeTag = 5
	messageExtTag     = 6
	messageOneofsTag  = 8

	enumValuesTag = 2

	serviceMethodsTag = 2
)

// Pool is the interning root for a set of interrelated descriptors. A Pool
// is safe for concurrent use: readers never observe a partially built
// file, and writers (AddFile/AddFileDescriptorSet) serialize with each
// other via mu.
type Pool struct {
	mu sync.Mutex

	// filesMu guards the maps below. A commit updates them under the write
	// lock and every lookup takes the read lock, so concurrent readers never
	// see a partial graph; a reader waits while a commit is in progress.
	filesMu sync.RWMutex
	files   map[string]*FileDescriptor
	symbols map[string]Descriptor
	// extsByExtendee maps an extendee full name to its extension fields,
	// indexed by field number, across every file in the pool.
	extsByExtendee map[string]map[int32]*FieldDescriptor
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{
		files:          map[string]*FileDescriptor{},
		symbols:        map[string]Descriptor{},
		extsByExtendee: map[string]map[int32]*FieldDescriptor{},
	}
}

// FindFileByPath returns the file previously admitted under the given
// name (its declared `name` field), or nil.
func (p *Pool) FindFileByPath(path string) *FileDescriptor {
	p.filesMu.RLock()
	defer p.filesMu.RUnlock()
	return p.files[path]
}

// FindSymbol looks up any named descriptor (message, enum, enum value,
// service, extension) by fully-qualified name.
func (p *Pool) FindSymbol(name string) Descriptor {
	p.filesMu.RLock()
	defer p.filesMu.RUnlock()
	return p.symbols[name]
}

// FindMessage looks up a message descriptor by fully-qualified name.
func (p *Pool) FindMessage(name string) *MessageDescriptor {
	if d, ok := p.FindSymbol(name).(*MessageDescriptor); ok {
		return d
	}
	return nil
}

// FindEnum looks up an enum descriptor by fully-qualified name.
func (p *Pool) FindEnum(name string) *EnumDescriptor {
	if d, ok := p.FindSymbol(name).(*EnumDescriptor); ok {
		return d
	}
	return nil
}

// FindExtension looks up an extension field registered against extendee,
// by field number.
func (p *Pool) FindExtension(extendee string, number int32) *FieldDescriptor {
	p.filesMu.RLock()
	defer p.filesMu.RUnlock()
	return p.extsByExtendee[extendee][number]
}

// RangeFiles calls fn for every file currently admitted to the pool, in an
// unspecified order.
func (p *Pool) RangeFiles(fn func(*FileDescriptor) bool) {
	p.filesMu.RLock()
	files := make([]*FileDescriptor, 0, len(p.files))
	for _, f := range p.files {
		files = append(files, f)
	}
	p.filesMu.RUnlock()
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
	for _, f := range files {
		if !fn(f) {
			return
		}
	}
}

// AddFileDescriptorSet admits every file in fds, in dependency order,
// returning the descriptor for the first file in the set (matching the
// convention that the set's first entry is the "root" being loaded, with
// the remainder its transitive dependencies).
func (p *Pool) AddFileDescriptorSet(fds *descriptorpb.FileDescriptorSet) (*FileDescriptor, error) {
	if len(fds.GetFile()) == 0 {
		return nil, fmt.Errorf("protodesc: file descriptor set is empty")
	}
	root := fds.GetFile()[0].GetName()
	if _, err := p.AddFiles(fds.GetFile()); err != nil {
		return nil, err
	}
	fd := p.FindFileByPath(root)
	if fd == nil {
		return nil, fmt.Errorf("protodesc: failed to admit %s", root)
	}
	return fd, nil
}

// AddFile admits a single FileDescriptorProto. Its dependencies must
// already be present in the pool (from a prior AddFile/AddFiles call).
func (p *Pool) AddFile(fd *descriptorpb.FileDescriptorProto) (*FileDescriptor, error) {
	files, err := p.AddFiles([]*descriptorpb.FileDescriptorProto{fd})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		// The name was already present, so AddFiles ignored the file;
		// return the descriptor admitted earlier under that name.
		return p.FindFileByPath(fd.GetName()), nil
	}
	return files[0], nil
}

// AddFiles admits a batch of FileDescriptorProtos that may depend on one
// another, resolving cross-file references across the whole batch. This
// implements build phases 1-6 of the pool builder contract.
func (p *Pool) AddFiles(protos []*descriptorpb.FileDescriptorProto) ([]*FileDescriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := &builder{pool: p, pending: map[string]*descriptorpb.FileDescriptorProto{}}

	// Phase 1: admit files (duplicate-name policy: silently ignore files
	// whose name is already present in the pool).
	var order []string
	for _, fd := range protos {
		name := fd.GetName()
		if p.files[name] != nil {
			continue
		}
		if _, dup := b.pending[name]; dup {
			continue
		}
		b.pending[name] = fd
		order = append(order, name)
	}

	sorted, err := b.topoSort(order)
	if err != nil {
		return nil, err
	}

	var results []*FileDescriptor
	built := make([]*FileDescriptor, len(sorted))
	// Files are built in topological order (each file's dependencies are
	// already in p.files or earlier in `sorted`). Independent files (those
	// that don't depend on one another within this batch) are built
	// concurrently, per the batch-validation parallelism the domain-stack
	// expansion calls for; results are still committed to the pool
	// atomically and in order below.
	remaining := len(sorted)
	resolvedIdx := map[string]int{}
	for i, name := range sorted {
		resolvedIdx[name] = i
	}
	for remaining > 0 {
		var batch []int
		for i, name := range sorted {
			if built[i] != nil {
				continue
			}
			ready := true
			fd := b.pending[name]
			for _, dep := range fd.GetDependency() {
				if p.files[dep] != nil {
					continue
				}
				di, inBatch := resolvedIdx[dep]
				if !inBatch || built[di] == nil {
					ready = false
					break
				}
			}
			if ready {
				batch = append(batch, i)
			}
		}
		if len(batch) == 0 {
			return nil, newError(sorted[0], DependencyCycle, "unresolved dependency ordering")
		}
		var eg errgroup.Group
		for _, i := range batch {
			i := i
			eg.Go(func() error {
				f, ferr := b.buildFile(sorted[i])
				if ferr != nil {
					return ferr
				}
				built[i] = f
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		remaining -= len(batch)
	}

	// Fully-qualified names must be unique across the whole pool (spec §3),
	// so check every symbol this batch is about to contribute against both
	// the already-committed pool table and the rest of the batch before
	// mutating anything.
	p.filesMu.Lock()
	seenInBatch := map[string]string{} // symbol -> contributing file
	for _, name := range sorted {
		for k := range b.symbolsFor(name) {
			if _, exists := p.symbols[k]; exists {
				p.filesMu.Unlock()
				return nil, newError(name, DuplicateName, "duplicate symbol %q (already present in pool)", k)
			}
			if owner, dup := seenInBatch[k]; dup {
				p.filesMu.Unlock()
				return nil, newError(name, DuplicateName, "duplicate symbol %q (also declared in %q)", k, owner)
			}
			seenInBatch[k] = name
		}
	}

	// Commit: make the new descriptors visible atomically.
	for i, name := range sorted {
		p.files[name] = built[i]
		for k, v := range b.symbolsFor(name) {
			p.symbols[k] = v
		}
		for _, ext := range built[i].extensions {
			p.registerExtensionLocked(ext)
		}
		for _, m := range built[i].allMessages() {
			for _, ext := range m.extensions {
				p.registerExtensionLocked(ext)
			}
		}
	}
	p.filesMu.Unlock()

	for _, name := range sorted {
		results = append(results, p.files[name])
	}
	return results, nil
}

func (p *Pool) registerExtensionLocked(ext *FieldDescriptor) {
	m := p.extsByExtendee[ext.extendeeName]
	if m == nil {
		m = map[int32]*FieldDescriptor{}
		p.extsByExtendee[ext.extendeeName] = m
	}
	m[ext.Number()] = ext
}
