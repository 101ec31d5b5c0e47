package fields

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// Registry maps field type codes to descriptors. Lookups never fail:
// unknown codes resolve to the default descriptor so content written for a
// since removed type still renders.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	defaultCode string
	fallback    Descriptor
}

// Choice is a (code, label) pair for schema pickers.
type Choice struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Option configures a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	storage interfaces.FileStorage
}

// WithFileStorage supplies the storage used by the file and image fields.
func WithFileStorage(storage interfaces.FileStorage) Option {
	return func(c *registryConfig) {
		c.storage = storage
	}
}

// RegisterOption configures a single registration.
type RegisterOption func(*registration)

type registration struct {
	asDefault bool
}

// AsDefault makes the registered descriptor the lookup fallback.
func AsDefault() RegisterOption {
	return func(r *registration) { r.asDefault = true }
}

// NewRegistry returns a registry with the built-in descriptors registered in
// order: char (default), bool, date, datetime, time, text, html, markdown,
// file, image.
func NewRegistry(opts ...Option) *Registry {
	cfg := registryConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Registry{descriptors: map[string]Descriptor{}}
	r.mustRegister(CodeChar, Char{}, AsDefault())
	r.mustRegister(CodeBool, Bool{})
	r.mustRegister(CodeDate, Date{})
	r.mustRegister(CodeDateTime, DateTime{})
	r.mustRegister(CodeTime, Time{})
	r.mustRegister(CodeText, Text{})
	r.mustRegister(CodeHTML, HTML{})
	r.mustRegister(CodeMarkdown, Markdown{})
	r.mustRegister(CodeFile, NewFileDescriptor(cfg.storage))
	r.mustRegister(CodeImage, NewImageDescriptor(cfg.storage))
	return r
}

func (r *Registry) mustRegister(code string, d Descriptor, opts ...RegisterOption) {
	if err := r.Register(code, d, opts...); err != nil {
		panic(err)
	}
}

// Register adds or replaces the descriptor for code. The last registration
// for a code wins.
func (r *Registry) Register(code string, d Descriptor, opts ...RegisterOption) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrCodeRequired
	}
	if len(code) > MaxCodeLength {
		return fmt.Errorf("%w: %q", ErrCodeTooLong, code)
	}
	if d == nil {
		return ErrInvalidValue
	}
	reg := registration{}
	for _, opt := range opts {
		opt(&reg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[code] = d
	if reg.asDefault || r.fallback == nil {
		r.fallback = d
		r.defaultCode = code
	} else if code == r.defaultCode {
		r.fallback = d
	}
	return nil
}

// Remove drops code. Removing the default code keeps its descriptor as the
// lookup fallback.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.descriptors, code)
}

// Lookup returns the descriptor for code or the default descriptor.
func (r *Registry) Lookup(code string) Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.descriptors[code]; ok {
		return d
	}
	return r.fallback
}

// Has reports whether code is registered.
func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.descriptors[code]
	return ok
}

// Default returns the fallback descriptor's code.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultCode
}

// Choices lists registered codes with their labels, sorted by code.
func (r *Registry) Choices() []Choice {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Choice, 0, len(r.descriptors))
	for code, d := range r.descriptors {
		out = append(out, Choice{Code: code, Label: d.Label()})
	}
	slices.SortFunc(out, func(a, b Choice) int { return strings.Compare(a.Code, b.Code) })
	return out
}
