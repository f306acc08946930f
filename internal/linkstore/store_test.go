package linkstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/startpage/internal/domain"
	"github.com/MrSnakeDoc/startpage/internal/logger"
	"github.com/MrSnakeDoc/startpage/internal/persist"
	"github.com/MrSnakeDoc/startpage/internal/store/memory"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

type recorder struct {
	ops   []string
	fails int
	size  int
}

func (r *recorder) Mutation(op string, err error) {
	r.ops = append(r.ops, op)
	if err != nil {
		r.fails++
	}
}

func (r *recorder) Size(n int) { r.size = n }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *memory.Slot, *persist.Gateway) {
	t.Helper()
	slot := memory.NewSlot()
	gw := persist.NewGateway(slot, logger.Nop())
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithIDGenerator(sequentialIDs())}, opts...)
	return New(context.Background(), gw, opts...), slot, gw
}

func ids(links []domain.Link) string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.ID
	}
	return strings.Join(out, ",")
}

func TestCreatePrependsAndPersists(t *testing.T) {
	s, _, gw := newTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, "First", "first.com", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	second, err := s.Create(ctx, "Second", "second.com", "data:image/png;base64,AA==")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	list := s.List()
	if ids(list) != second.ID+","+first.ID {
		t.Errorf("List() order = %s, want newest first", ids(list))
	}
	if first.CreatedAt != fixedNow.UnixMilli() {
		t.Errorf("CreatedAt = %d, want %d", first.CreatedAt, fixedNow.UnixMilli())
	}
	if !second.HasThumb() {
		t.Error("second link should carry its thumbnail")
	}

	persisted, status := gw.Load(ctx)
	if status != persist.LoadOK || ids(persisted) != ids(list) {
		t.Errorf("persisted = %s (%v), want %s", ids(persisted), status, ids(list))
	}
}

func TestCreateNormalizes(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		url       string
		wantTitle string
		wantURL   string
	}{
		{"title falls back to host", "", "example.com", "example.com", "https://example.com/"},
		{"www stripped from fallback", "  ", "https://www.Example.com/a", "example.com", "https://www.example.com/a"},
		{"title trimmed", "  News ", "http://news.org", "News", "http://news.org/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestStore(t)
			got, err := s.Create(context.Background(), tt.title, tt.url, "")
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if got.Title != tt.wantTitle || got.URL != tt.wantURL {
				t.Errorf("Create() = {%q %q}, want {%q %q}", got.Title, got.URL, tt.wantTitle, tt.wantURL)
			}
		})
	}
}

func TestCreateRejectsEmptyURL(t *testing.T) {
	s, slot, _ := newTestStore(t)

	_, err := s.Create(context.Background(), "Nothing", "   ", "")
	if !errors.Is(err, domain.ErrInvalidURL) {
		t.Fatalf("Create() error = %v, want ErrInvalidURL", err)
	}
	if s.Len() != 0 || slot.Writes() != 0 {
		t.Errorf("store mutated on invalid input: len=%d writes=%d", s.Len(), slot.Writes())
	}
}

func TestCreateSkipsTakenID(t *testing.T) {
	calls := 0
	gen := func() string {
		calls++
		if calls <= 2 {
			return "same"
		}
		return "other"
	}
	s, _, _ := newTestStore(t, WithIDGenerator(gen))
	ctx := context.Background()

	a, _ := s.Create(ctx, "", "a.com", "")
	b, _ := s.Create(ctx, "", "b.com", "")
	if a.ID == b.ID {
		t.Errorf("Create() reused id %q", a.ID)
	}
}

func TestUpdate(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	orig, _ := s.Create(ctx, "Old", "old.com", "data:image/png;base64,AA==")

	tests := []struct {
		name      string
		thumb     domain.ThumbChange
		wantThumb string
	}{
		{"keep", domain.KeepThumb(), "data:image/png;base64,AA=="},
		{"set", domain.SetThumb("data:image/gif;base64,BB=="), "data:image/gif;base64,BB=="},
		{"clear", domain.ClearThumb(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// restore the starting thumbnail
			_, _ = s.Update(ctx, orig.ID, "Old", "old.com", domain.SetThumb("data:image/png;base64,AA=="))

			got, err := s.Update(ctx, orig.ID, "", "new.com/path", tt.thumb)
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if got.Thumb != tt.wantThumb {
				t.Errorf("Thumb = %q, want %q", got.Thumb, tt.wantThumb)
			}
			if got.Title != "new.com" || got.URL != "https://new.com/path" {
				t.Errorf("Update() = {%q %q}", got.Title, got.URL)
			}
			if got.ID != orig.ID || got.CreatedAt != orig.CreatedAt {
				t.Errorf("Update() changed identity: %+v", got)
			}
		})
	}
}

func TestUpdateUnknownAndInvalid(t *testing.T) {
	s, slot, _ := newTestStore(t)
	ctx := context.Background()
	l, _ := s.Create(ctx, "A", "a.com", "")
	writes := slot.Writes()

	if _, err := s.Update(ctx, "missing", "x", "x.com", domain.KeepThumb()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Update(ctx, l.ID, "x", "", domain.KeepThumb()); !errors.Is(err, domain.ErrInvalidURL) {
		t.Errorf("Update(empty url) error = %v, want ErrInvalidURL", err)
	}
	if slot.Writes() != writes {
		t.Error("failed updates should not write")
	}
	if got, _ := s.Get(l.ID); got.Title != "A" {
		t.Errorf("link changed after failed updates: %+v", got)
	}
}

func TestDelete(t *testing.T) {
	s, slot, _ := newTestStore(t)
	ctx := context.Background()
	a, _ := s.Create(ctx, "A", "a.com", "")
	b, _ := s.Create(ctx, "B", "b.com", "")

	ok, err := s.Delete(ctx, a.ID)
	if !ok || err != nil {
		t.Fatalf("Delete() = %v, %v", ok, err)
	}
	if ids(s.List()) != b.ID {
		t.Errorf("List() = %s, want %s", ids(s.List()), b.ID)
	}

	writes := slot.Writes()
	ok, err = s.Delete(ctx, "missing")
	if ok || err != nil {
		t.Errorf("Delete(missing) = %v, %v, want false, nil", ok, err)
	}
	if slot.Writes() != writes {
		t.Error("Delete(missing) should not write")
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     string
		moved    bool
	}{
		{"first onto last", "A", "C", "B,C,A", true},
		{"last onto first", "C", "A", "C,A,B", true},
		{"middle onto last", "B", "C", "A,C,B", true},
		{"first onto middle", "A", "B", "B,A,C", true},
		{"same id", "B", "B", "A,B,C", false},
		{"unknown source", "X", "A", "A,B,C", false},
		{"unknown target", "A", "X", "A,B,C", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestStore(t)
			ctx := context.Background()
			if err := s.ReplaceAll(ctx, []domain.Link{
				{ID: "A", URL: "https://a.com/"},
				{ID: "B", URL: "https://b.com/"},
				{ID: "C", URL: "https://c.com/"},
			}); err != nil {
				t.Fatalf("ReplaceAll() error = %v", err)
			}

			moved, err := s.Move(ctx, tt.from, tt.to)
			if err != nil {
				t.Fatalf("Move() error = %v", err)
			}
			if moved != tt.moved {
				t.Errorf("Move() = %v, want %v", moved, tt.moved)
			}
			if got := ids(s.List()); got != tt.want {
				t.Errorf("order = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReplaceAllFixesIDs(t *testing.T) {
	s, _, _ := newTestStore(t)

	err := s.ReplaceAll(context.Background(), []domain.Link{
		{ID: "dup", URL: "https://a.com/"},
		{ID: "dup", URL: "https://b.com/"},
		{ID: "", URL: "https://c.com/"},
		{ID: "no-url"},
	})
	if err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("List() has %d links, want 3", len(list))
	}
	seen := map[string]bool{}
	for _, l := range list {
		if l.ID == "" || seen[l.ID] {
			t.Errorf("bad id %q in %s", l.ID, ids(list))
		}
		seen[l.ID] = true
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	src, _, _ := newTestStore(t)
	ctx := context.Background()
	_, _ = src.Create(ctx, "One", "one.com", "")
	_, _ = src.Create(ctx, "Two", "two.com", "data:image/png;base64,AA==")

	data, err := src.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(string(data), "\n  \"version\": 1") {
		t.Errorf("Export() is not two-space indented:\n%s", data)
	}

	dst, _, _ := newTestStore(t)
	n, err := dst.Import(ctx, data)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Import() = %d, want 2", n)
	}

	want, got := src.List(), dst.List()
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("link %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestExportNullThumb(t *testing.T) {
	s, _, _ := newTestStore(t)
	_, _ = s.Create(context.Background(), "A", "a.com", "")

	data, _ := s.Export()
	var env struct {
		Links []map[string]any `json:"links"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("export does not parse: %v", err)
	}
	thumb, present := env.Links[0]["thumb"]
	if !present || thumb != nil {
		t.Errorf("thumb = %v (present=%v), want null", thumb, present)
	}
}

func TestImportSanitizes(t *testing.T) {
	s, _, _ := newTestStore(t)

	raw := `{"version":1,"links":[
		{"id":"a","title":"A","url":"a.com","thumb":null,"createdAt":1},
		{"title":"No id","url":"https://b.com"},
		{"id":"c","url":"bad url with spaces"},
		{"id":"d","url":""}
	]}`
	n, err := s.Import(context.Background(), []byte(raw))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Import() = %d, want 2", n)
	}
	list := s.List()
	if list[0].ID != "a" || list[0].URL != "https://a.com/" || list[0].CreatedAt != 1 {
		t.Errorf("first link = %+v", list[0])
	}
	if list[1].ID == "" || list[1].CreatedAt != fixedNow.UnixMilli() {
		t.Errorf("second link = %+v, want fresh id and now", list[1])
	}
}

func TestImportMalformedLeavesStoreUntouched(t *testing.T) {
	s, slot, _ := newTestStore(t)
	ctx := context.Background()
	_, _ = s.Create(ctx, "Keep", "keep.com", "")
	before := ids(s.List())
	writes := slot.Writes()

	for _, raw := range []string{`not json`, `{"version":1}`, `{"links":"nope"}`, `[]`} {
		if _, err := s.Import(ctx, []byte(raw)); !errors.Is(err, domain.ErrMalformedImport) {
			t.Errorf("Import(%s) error = %v, want ErrMalformedImport", raw, err)
		}
	}
	if ids(s.List()) != before || slot.Writes() != writes {
		t.Errorf("store changed after malformed imports: %s", ids(s.List()))
	}
}

func TestReset(t *testing.T) {
	s, _, gw := newTestStore(t)
	ctx := context.Background()
	_, _ = s.Create(ctx, "A", "a.com", "")

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after reset", s.Len())
	}
	links, status := gw.Load(ctx)
	if status != persist.LoadOK || len(links) != 0 {
		t.Errorf("persisted after reset = %v (%v)", links, status)
	}
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	rec := &recorder{}
	s, slot, gw := newTestStore(t, WithObserver(rec))
	ctx := context.Background()
	l, _ := s.Create(ctx, "Before", "a.com", "")

	slot.FailWrites(persist.ErrQuotaExceeded)
	got, err := s.Update(ctx, l.ID, "After", "a.com", domain.KeepThumb())
	if !errors.Is(err, persist.ErrNotPersisted) || !errors.Is(err, persist.ErrQuotaExceeded) {
		t.Fatalf("Update() error = %v, want not persisted + quota", err)
	}
	if got.Title != "After" {
		t.Errorf("Update() returned %+v, want the applied change", got)
	}
	if cur, _ := s.Get(l.ID); cur.Title != "After" {
		t.Errorf("in-memory title = %q, want After", cur.Title)
	}

	fresh, _ := gw.Load(ctx)
	if len(fresh) != 1 || fresh[0].Title != "Before" {
		t.Errorf("slot content = %+v, want the pre-failure state", fresh)
	}

	st := s.Status()
	if st.Persisted || st.LastError == "" {
		t.Errorf("Status() = %+v, want not persisted with an error", st)
	}
	if rec.fails != 1 {
		t.Errorf("observer saw %d failures, want 1", rec.fails)
	}

	slot.FailWrites(nil)
	if _, err := s.Create(ctx, "", "b.com", ""); err != nil {
		t.Fatalf("Create() after recovery error = %v", err)
	}
	if !s.Status().Persisted {
		t.Error("Status().Persisted should recover after a good write")
	}
}

func TestLoadFromSlot(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantIDs string
		status  persist.LoadStatus
	}{
		{"existing links", `[{"id":"a","title":"A","url":"https://a.com/","thumb":null,"createdAt":1}]`, "a", persist.LoadOK},
		{"corrupt", `{{{`, "", persist.LoadCorrupt},
		{
			"repeated ids and empty urls",
			`[{"id":"a","url":"https://a.com/","createdAt":1},{"id":"a","url":"https://b.com/","createdAt":2},{"id":"c","url":"","createdAt":3},{"id":"","url":"https://d.com/","createdAt":4}]`,
			"a,id-1,id-2",
			persist.LoadOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := memory.NewSlot()
			slot.Put([]byte(tt.content))
			s := New(context.Background(), persist.NewGateway(slot, logger.Nop()), WithIDGenerator(sequentialIDs()))

			if got := ids(s.List()); got != tt.wantIDs {
				t.Errorf("ids = %q, want %q", got, tt.wantIDs)
			}
			if s.Status().Loaded != tt.status {
				t.Errorf("Loaded = %v, want %v", s.Status().Loaded, tt.status)
			}
			for _, l := range s.List() {
				if l.URL == "" {
					t.Errorf("loaded link %q has an empty url", l.ID)
				}
			}
			if slot.Writes() != 0 {
				t.Errorf("loading wrote to the slot %d times", slot.Writes())
			}
		})
	}
}

func TestLoadedDuplicateIDsAreIndependent(t *testing.T) {
	slot := memory.NewSlot()
	slot.Put([]byte(`[{"id":"a","url":"https://a.com/"},{"id":"a","url":"https://b.com/"}]`))
	s := New(context.Background(), persist.NewGateway(slot, logger.Nop()), WithIDGenerator(sequentialIDs()))

	if ok, err := s.Delete(context.Background(), "a"); !ok || err != nil {
		t.Fatalf("Delete(a) = %v, %v", ok, err)
	}
	if _, found := s.Get("a"); found {
		t.Error("a link with id a is still present after Delete(a)")
	}
	if got, found := s.Get("id-1"); !found || got.URL != "https://b.com/" {
		t.Errorf("Get(id-1) = %+v, %v; want the b.com link", got, found)
	}
}

func TestExportImportKeepsEveryCreatedLink(t *testing.T) {
	src, _, _ := newTestStore(t)
	ctx := context.Background()

	inputs := []string{"example.com", "bad url with spaces", "example.com:abc", "example.com/a b", "HTTP://Example.com:80/x?y=1"}
	for _, in := range inputs {
		if _, err := src.Create(ctx, "", in, ""); err != nil && !errors.Is(err, domain.ErrInvalidURL) {
			t.Fatalf("Create(%q) error = %v", in, err)
		}
	}
	if src.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 accepted links", src.Len())
	}

	data, err := src.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	dst, _, _ := newTestStore(t)
	if _, err := dst.Import(ctx, data); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	want, got := src.List(), dst.List()
	if len(got) != len(want) {
		t.Fatalf("Import() kept %d links, want %d", len(got), len(want))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("link %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSaveIgnoresCanceledContext(t *testing.T) {
	s, slot, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Create(ctx, "A", "a.com", ""); err != nil {
		t.Fatalf("Create() with canceled context error = %v", err)
	}
	if slot.Writes() != 1 || !s.Status().Persisted {
		t.Errorf("writes = %d, persisted = %v; want 1, true", slot.Writes(), s.Status().Persisted)
	}
}

func TestRevisionAndObserver(t *testing.T) {
	rec := &recorder{}
	s, _, _ := newTestStore(t, WithObserver(rec))
	ctx := context.Background()

	a, _ := s.Create(ctx, "", "a.com", "")
	_, _ = s.Create(ctx, "", "b.com", "")
	_, _ = s.Delete(ctx, a.ID)
	_, _ = s.Delete(ctx, "missing")

	if s.Revision() != 3 {
		t.Errorf("Revision() = %d, want 3", s.Revision())
	}
	if strings.Join(rec.ops, ",") != "create,create,delete" {
		t.Errorf("observed ops = %v", rec.ops)
	}
	if rec.size != 1 {
		t.Errorf("observed size = %d, want 1", rec.size)
	}
}

func TestSearch(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	_, _ = s.Create(ctx, "Go Docs", "go.dev", "")
	_, _ = s.Create(ctx, "News", "news.ycombinator.com", "")

	if got := s.Search("GO"); len(got) != 1 || got[0].Title != "Go Docs" {
		t.Errorf("Search(GO) = %+v", got)
	}
	if got := s.Search("  "); len(got) != 2 {
		t.Errorf("Search(blank) returned %d links, want 2", len(got))
	}
}
