package domain

// History is the set of candidate identifiers already used for generation.
// It only grows.
type History map[string]struct{}

// NewHistory builds a history from identifiers.
func NewHistory(ids ...string) History {
	h := make(History, len(ids))
	for _, id := range ids {
		h.Add(id)
	}
	return h
}

// Contains reports whether id has been used before.
func (h History) Contains(id string) bool {
	_, ok := h[id]
	return ok
}

// Add records id. Empty identifiers are ignored.
func (h History) Add(id string) {
	if id == "" {
		return
	}
	h[id] = struct{}{}
}
