package paginate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/junovette/driftbit/driftbit/config"
)

func lines(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("line %d", i+1)
	}
	return out
}

func TestPagingBoundsAndReset(t *testing.T) {
	st := NewStore()
	session := st.Open("user", "Inventory", lines(25))

	if got := session.PageCount(); got != 3 {
		t.Fatalf("PageCount() = %d, want 3", got)
	}
	if got := len(session.Slice()); got != config.LinesPerPage {
		t.Errorf("first page holds %d lines, want %d", got, config.LinesPerPage)
	}

	session = st.Turn("user", 1)
	if session.Page != 1 {
		t.Errorf("page = %d after +1, want 1", session.Page)
	}
	session = st.Turn("user", 5)
	if session.Page != 2 {
		t.Errorf("page = %d after overshoot, want clamped 2", session.Page)
	}
	if got := len(session.Slice()); got != 5 {
		t.Errorf("last page holds %d lines, want 5", got)
	}
	session = st.Turn("user", -10)
	if session.Page != 0 {
		t.Errorf("page = %d after undershoot, want clamped 0", session.Page)
	}

	st.Turn("user", 2)
	session = st.Turn("user", 0)
	if session.Page != 0 {
		t.Errorf("page = %d after zero delta, want reset to 0", session.Page)
	}
}

func TestTurnWithoutSession(t *testing.T) {
	st := NewStore()
	if got := st.Turn("ghost", 1); got != nil {
		t.Errorf("Turn on missing session = %+v, want nil", got)
	}
	st.Open("user", "x", lines(3))
	st.Close("user")
	if got := st.Turn("user", 1); got != nil {
		t.Error("closed session still turns")
	}
}

func TestOpenReplacesSession(t *testing.T) {
	st := NewStore()
	st.Open("user", "Old", lines(30))
	st.Turn("user", 2)
	session := st.Open("user", "New", lines(5))
	if session.Page != 0 || session.Title != "New" {
		t.Errorf("reopened session = %+v, want fresh on page 0", session)
	}
}

func TestRenderHeaderAndBody(t *testing.T) {
	st := NewStore()
	session := st.Open("user", "Market", lines(12))
	rendered := session.Render()
	if !strings.HasPrefix(rendered, "Market (page 1/2)\n") {
		t.Errorf("header = %q", strings.SplitN(rendered, "\n", 2)[0])
	}
	if !strings.Contains(rendered, "line 10") || strings.Contains(rendered, "line 11") {
		t.Error("first page body does not cut at the page boundary")
	}

	empty := st.Open("user", "Empty", nil)
	if got := empty.PageCount(); got != 1 {
		t.Errorf("empty PageCount() = %d, want 1", got)
	}
}
