package notify

// Store is the in-memory set of active notifications, ordered by insertion.
//
// Store is not safe for concurrent use; it is owned by a single scheduler
// that serializes every access.
type Store struct {
	records map[string]*Notification
	order   []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]*Notification)}
}

// Insert adds n. It returns false without modifying the store when a record
// with the same ID is already present.
func (s *Store) Insert(n Notification) bool {
	if _, ok := s.records[n.ID]; ok {
		return false
	}
	s.records[n.ID] = &n
	s.order = append(s.order, n.ID)
	return true
}

// Lookup returns the live record for id. The pointer is only valid to the
// owner of the store.
func (s *Store) Lookup(id string) (*Notification, bool) {
	n, ok := s.records[id]
	return n, ok
}

// Get returns a copy of the record for id.
func (s *Store) Get(id string) (Notification, bool) {
	n, ok := s.records[id]
	if !ok {
		return Notification{}, false
	}
	return n.clone(), true
}

// Delete removes id. It reports whether a record was removed.
func (s *Store) Delete(id string) bool {
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	for i, x := range s.order {
		if x == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.order)
}

// Snapshot returns copies of all records in insertion order.
func (s *Store) Snapshot() []Notification {
	out := make([]Notification, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].clone())
	}
	return out
}

// IDs returns record IDs in insertion order, optionally filtered by status.
func (s *Store) IDs(status ...Status) []string {
	out := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if len(status) == 0 || hasStatus(s.records[id].Status, status) {
			out = append(out, id)
		}
	}
	return out
}

// Clear removes every record.
func (s *Store) Clear() {
	s.records = make(map[string]*Notification)
	s.order = nil
}

func hasStatus(st Status, set []Status) bool {
	for _, x := range set {
		if st == x {
			return true
		}
	}
	return false
}

func (n *Notification) clone() Notification {
	c := *n
	if n.Action != nil {
		a := *n.Action
		c.Action = &a
	}
	return c
}
