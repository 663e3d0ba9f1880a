// Package paginate keeps per-user line-paging sessions for long command
// output. Sessions live in a bounded LRU so abandoned pagers age out on
// their own.
package paginate

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/junovette/driftbit/driftbit/config"
)

// Session is one user's open pager.
type Session struct {
	Title string
	Lines []string
	Page  int
}

// PageCount is the number of pages the session spans.
func (s *Session) PageCount() int {
	if len(s.Lines) == 0 {
		return 1
	}
	return (len(s.Lines) + config.LinesPerPage - 1) / config.LinesPerPage
}

// Slice returns the lines on the current page.
func (s *Session) Slice() []string {
	start := s.Page * config.LinesPerPage
	if start >= len(s.Lines) {
		return nil
	}
	end := start + config.LinesPerPage
	if end > len(s.Lines) {
		end = len(s.Lines)
	}
	return s.Lines[start:end]
}

// Render formats the current page with its header and footer.
func (s *Session) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (page %d/%d)\n", s.Title, s.Page+1, s.PageCount())
	for _, line := range s.Slice() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Store is the session cache, keyed by user id.
type Store struct {
	cache *lru.Cache
}

func NewStore() *Store {
	cache, _ := lru.New(config.PaginationCacheSize)
	return &Store{cache: cache}
}

// Open replaces the user's session with a fresh one on page zero and returns
// it.
func (st *Store) Open(userID, title string, lines []string) *Session {
	session := &Session{Title: title, Lines: lines}
	st.cache.Add(userID, session)
	return session
}

// Turn moves the user's pager by delta pages, clamped to the session bounds.
// A delta of zero resets to the first page. Returns nil when the user has no
// open session.
func (st *Store) Turn(userID string, delta int) *Session {
	value, ok := st.cache.Get(userID)
	if !ok {
		return nil
	}
	session := value.(*Session)
	if delta == 0 {
		session.Page = 0
		return session
	}
	page := session.Page + delta
	if page < 0 {
		page = 0
	}
	if max := session.PageCount() - 1; page > max {
		page = max
	}
	session.Page = page
	return session
}

// Close drops the user's session.
func (st *Store) Close(userID string) {
	st.cache.Remove(userID)
}
