package rest

import (
	"errors"
	"fmt"
	"sync"
)

// Kind identifies which mapper of a metadata entry is being registered.
type Kind int

const (
	KindBody Kind = iota
	KindURLArgs
)

func (k Kind) String() string {
	switch k {
	case KindBody:
		return "body"
	case KindURLArgs:
		return "url args"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Key identifies an operation within a registry.
type Key struct {
	Client    string
	Operation string
}

func (k Key) String() string {
	return k.Client + "." + k.Operation
}

// BodyBuilder produces the request payload from the call arguments.
type BodyBuilder func(args Args) (Payload, error)

// URLArgExtractor selects the value passed to a PathFunc template.
type URLArgExtractor func(args Args) any

// Entry holds the optional mappers declared for one operation.
type Entry struct {
	Body    BodyBuilder
	URLArgs URLArgExtractor
}

var (
	// ErrDuplicateMetadata is matched by every *DuplicateMetadataError.
	ErrDuplicateMetadata = errors.New("duplicate operation metadata")
	// ErrRegistrySealed is returned for registrations after the first call.
	ErrRegistrySealed = errors.New("registry sealed")
)

// DuplicateMetadataError reports a second registration of the same kind for
// one operation.
type DuplicateMetadataError struct {
	Key  Key
	Kind Kind
}

func (e *DuplicateMetadataError) Error() string {
	return fmt.Sprintf("cannot define %s metadata for %s more than once", e.Kind, e.Key)
}

func (e *DuplicateMetadataError) Is(target error) bool {
	return target == ErrDuplicateMetadata
}

// Registry associates operations with their body and URL-argument mappers.
// Registration happens while clients are declared; the registry is sealed
// on the first dispatched call and is read-only from then on.
type Registry struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	sealed  bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Key]Entry)}
}

// Register stores mapper under key for the given kind. mapper must be a
// BodyBuilder for KindBody and a URLArgExtractor for KindURLArgs (plain
// functions with the matching signature are accepted).
func (r *Registry) Register(key Key, kind Kind, mapper any) error {
	switch kind {
	case KindBody:
		switch fn := mapper.(type) {
		case BodyBuilder:
			return r.RegisterBody(key, fn)
		case func(Args) (Payload, error):
			return r.RegisterBody(key, fn)
		}
	case KindURLArgs:
		switch fn := mapper.(type) {
		case URLArgExtractor:
			return r.RegisterURLArgs(key, fn)
		case func(Args) any:
			return r.RegisterURLArgs(key, fn)
		}
	default:
		return fmt.Errorf("register %s: unknown metadata %s", key, kind)
	}
	return fmt.Errorf("register %s: %T is not a %s mapper", key, mapper, kind)
}

// RegisterBody sets the body builder for key.
func (r *Registry) RegisterBody(key Key, fn BodyBuilder) error {
	if fn == nil {
		return fmt.Errorf("register %s: nil body builder", key)
	}
	return r.update(key, KindBody, func(e *Entry) bool {
		if e.Body != nil {
			return false
		}
		e.Body = fn
		return true
	})
}

// RegisterURLArgs sets the URL-argument extractor for key.
func (r *Registry) RegisterURLArgs(key Key, fn URLArgExtractor) error {
	if fn == nil {
		return fmt.Errorf("register %s: nil url args extractor", key)
	}
	return r.update(key, KindURLArgs, func(e *Entry) bool {
		if e.URLArgs != nil {
			return false
		}
		e.URLArgs = fn
		return true
	})
}

func (r *Registry) update(key Key, kind Kind, set func(*Entry) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %s metadata for %s: %w", kind, key, ErrRegistrySealed)
	}
	if r.entries == nil {
		r.entries = make(map[Key]Entry)
	}
	entry := r.entries[key]
	if !set(&entry) {
		return &DuplicateMetadataError{Key: key, Kind: kind}
	}
	r.entries[key] = entry
	return nil
}

// Lookup returns the entry for key, or the zero Entry when nothing was
// registered.
func (r *Registry) Lookup(key Key) Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[key]
}

// Seal prevents further registrations.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether the registry accepts registrations.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Option attaches metadata to an operation in Define.
type Option func(r *Registry, key Key) error

// WithBody declares the operation's body builder.
func WithBody(fn BodyBuilder) Option {
	return func(r *Registry, key Key) error {
		return r.RegisterBody(key, fn)
	}
}

// WithURLArgs declares the operation's URL-argument extractor.
func WithURLArgs(fn URLArgExtractor) Option {
	return func(r *Registry, key Key) error {
		return r.RegisterURLArgs(key, fn)
	}
}

// Define declares op against the registry, registering every option.
func Define(r *Registry, op Operation, opts ...Option) error {
	if r == nil {
		return fmt.Errorf("define %s: registry is nil", op.Key())
	}
	if err := op.validate(); err != nil {
		return err
	}
	for _, opt := range opts {
		if err := opt(r, op.Key()); err != nil {
			return err
		}
	}
	return nil
}
