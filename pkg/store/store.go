package store

import (
	"fmt"
	"sort"
	"sync"
)

// Store maps string keys to ordered lists of values.
// All methods are safe for concurrent use, but callers that pair a Store with
// external persistence must still serialize their writes.
type Store struct {
	mu     sync.RWMutex
	schema Schema
	data   map[string][]Value
}

// New creates an empty Store with the given schema.
func New(schema Schema) *Store {
	return &Store{
		schema: schema,
		data:   make(map[string][]Value),
	}
}

// Schema returns the schema the Store was created with.
func (s *Store) Schema() Schema {
	return s.schema
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key must not be empty", ErrInvalidKey)
	}
	return nil
}

// Create appends values to the list stored under key, creating the entry if
// it does not exist yet. Calling Create without values only creates the entry.
func (s *Store) Create(key string, values ...Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkCreate(key, values); err != nil {
		return err
	}
	s.data[key] = append(s.data[key], cloneValues(values)...)
	if s.data[key] == nil {
		s.data[key] = []Value{}
	}
	return nil
}

func (s *Store) checkCreate(key string, values []Value) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.schema.checkValues(values); err != nil {
		return err
	}
	if s.schema.Unique && len(s.data[key])+len(values) > 1 {
		return fmt.Errorf("%w: %q already holds a value", ErrDuplicateKey, key)
	}
	return nil
}

// Read returns a copy of the values stored under key. It returns an empty
// slice when the key is absent or invalid.
func (s *Store) Read(key string) []Value {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.data[key]
	if !ok {
		return []Value{}
	}
	return cloneValues(values)
}

// Update replaces the whole list stored under key.
func (s *Store) Update(key string, values []Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUpdate(key, values); err != nil {
		return err
	}
	s.data[key] = cloneValues(values)
	return nil
}

// Validate runs the checks Update would run, without changing the Store.
func (s *Store) Validate(key string, values []Value) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkUpdate(key, values)
}

func (s *Store) checkUpdate(key string, values []Value) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.schema.checkValues(values); err != nil {
		return err
	}
	if s.schema.Unique && len(values) > 1 {
		return fmt.Errorf("%w: %q would hold %d values", ErrDuplicateKey, key, len(values))
	}
	return nil
}

// Delete removes the entry for key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]Value)
}

// Exists reports whether key has an entry, even an empty one.
func (s *Store) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Length returns the number of values under key, or 0 if it is absent.
func (s *Store) Length(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[key])
}

// Keys returns every key in ascending order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Export returns a deep copy of the whole mapping.
func (s *Store) Export() map[string][]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]Value, len(s.data))
	for k, v := range s.data {
		out[k] = cloneValues(v)
	}
	return out
}

// Import creates every (key, values) pair of snapshot, appending to existing
// entries. If any pair is rejected nothing is imported.
func (s *Store) Import(snapshot map[string][]Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := s.checkCreate(k, snapshot[k]); err != nil {
			return fmt.Errorf("import %q: %w", k, err)
		}
	}
	for _, k := range keys {
		s.data[k] = append(s.data[k], cloneValues(snapshot[k])...)
		if s.data[k] == nil {
			s.data[k] = []Value{}
		}
	}
	return nil
}

// ApproximateSize estimates the size of the stored data in bytes.
// It is informational only.
func (s *Store) ApproximateSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, values := range s.data {
		total += sizeOf(values)
	}
	return total
}

// Strings converts values into text, for callers that only deal in strings.
func Strings(values []Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Text(v)
	}
	return out
}

// Values is the inverse of Strings.
func Values(texts []string) []Value {
	out := make([]Value, len(texts))
	for i, t := range texts {
		out[i] = t
	}
	return out
}
