package studio

// Slot caches one remotely owned list. Every fetch takes a generation from
// Begin; a result carrying a generation older than the newest issued one is
// dropped, success or error alike.
type Slot[T any] struct {
	value   T
	err     error
	loaded  bool
	issued  uint64
	settled uint64
}

// Begin records a new in-flight fetch and returns its generation.
func (s *Slot[T]) Begin() uint64 {
	s.issued++
	return s.issued
}

// Apply stores v if gen is still current. It reports whether v was kept.
func (s *Slot[T]) Apply(gen uint64, v T) bool {
	if gen < s.issued {
		return false
	}
	s.value = v
	s.err = nil
	s.loaded = true
	s.settled = gen
	return true
}

// Fail records err if gen is still current. The last good value is kept so a
// later success can replace it, but Err is what the view shows.
func (s *Slot[T]) Fail(gen uint64, err error) bool {
	if gen < s.issued {
		return false
	}
	s.err = err
	s.settled = gen
	return true
}

func (s *Slot[T]) Value() T {
	return s.value
}

func (s *Slot[T]) Err() error {
	return s.err
}

func (s *Slot[T]) Loaded() bool {
	return s.loaded
}

// Pending reports whether the newest issued fetch has not answered yet.
func (s *Slot[T]) Pending() bool {
	return s.settled < s.issued
}
