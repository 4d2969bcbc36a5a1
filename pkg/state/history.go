package state

const DefaultHistoryLimit = 100

// History is a browser like stack of hashes with a cursor.
type History struct {
	entries []string
	pos     int
	limit   int
}

func NewHistory(limit int) *History {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &History{pos: -1, limit: limit}
}

// Push drops every forward entry and appends hash as the current entry.
func (h *History) Push(hash string) {
	h.entries = append(h.entries[:h.pos+1], hash)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = h.entries[over:]
	}
	h.pos = len(h.entries) - 1
}

// Replace rewrites the current entry, forward entries are kept.
func (h *History) Replace(hash string) {
	if h.pos < 0 {
		h.Push(hash)
		return
	}
	h.entries[h.pos] = hash
}

func (h *History) Current() string {
	if h.pos < 0 {
		return ""
	}
	return h.entries[h.pos]
}

func (h *History) Back() (string, bool) {
	if h.pos <= 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

func (h *History) Forward() (string, bool) {
	if h.pos >= len(h.entries)-1 {
		return "", false
	}
	h.pos++
	return h.entries[h.pos], true
}

func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the stack and the cursor position.
func (h *History) Entries() ([]string, int) {
	ret := make([]string, len(h.entries))
	copy(ret, h.entries)
	return ret, h.pos
}
