package calendar

import "sync"

// Recorder observes cache lookups. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Hit(cache string)
	Miss(cache string)
}

type nopRecorder struct{}

func (nopRecorder) Hit(string)  {}
func (nopRecorder) Miss(string) {}

// Memo caches the results of a pure computation for the life of the
// process. Concurrent misses on the same key may each compute; the first
// value stored wins and later ones are discarded. Errors are not cached.
type Memo[K comparable, V any] struct {
	name     string
	entries  sync.Map
	recorder Recorder
}

// NewMemo returns an empty cache. name labels it for the recorder.
func NewMemo[K comparable, V any](name string, recorder Recorder) *Memo[K, V] {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Memo[K, V]{name: name, recorder: recorder}
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss.
func (m *Memo[K, V]) GetOrCompute(key K, compute func(K) (V, error)) (V, error) {
	if v, ok := m.entries.Load(key); ok {
		m.recorder.Hit(m.name)
		return v.(V), nil
	}
	m.recorder.Miss(m.name)

	v, err := compute(key)
	if err != nil {
		var zero V
		return zero, err
	}

	actual, _ := m.entries.LoadOrStore(key, v)
	return actual.(V), nil
}

// Len returns the number of cached entries.
func (m *Memo[K, V]) Len() int {
	n := 0
	m.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Name returns the cache label.
func (m *Memo[K, V]) Name() string { return m.name }
