package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/samirrijal/maptrace/internal/core/fragment"
	"github.com/samirrijal/maptrace/internal/core/usecases"
)

func TestValidSession(t *testing.T) {
	valid := []string{"a", "abc-DEF_123", "0123456789012345678901234567890123456789012345678901234567890123"}
	invalid := []string{"", "a b", "a/b", "ä", "01234567890123456789012345678901234567890123456789012345678901234"}
	for _, id := range valid {
		if !usecases.ValidSession(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}
	for _, id := range invalid {
		if usecases.ValidSession(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}

func TestFragmentService_Get_Unknown(t *testing.T) {
	svc := usecases.NewFragmentService(newMockFragmentStore(nil), nil)
	st, err := svc.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Len() != 0 {
		t.Errorf("expected empty state, got %q", st.String())
	}
}

func TestFragmentService_InvalidSession(t *testing.T) {
	svc := usecases.NewFragmentService(newMockFragmentStore(nil), nil)
	if _, err := svc.Get(context.Background(), "../etc"); !errors.Is(err, usecases.ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}
	if _, err := svc.Replace(context.Background(), "", "a=1", "api"); !errors.Is(err, usecases.ErrInvalidSession) {
		t.Errorf("expected ErrInvalidSession, got %v", err)
	}
}

func TestFragmentService_Replace_Normalizes(t *testing.T) {
	store := newMockFragmentStore(nil)
	pub := &mockPublisher{}
	svc := usecases.NewFragmentService(store, pub)

	got, err := svc.Replace(context.Background(), "s1", "#path=gAAAgAAA&&layers=b&map=3/1/2", "api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "map=3/1/2&layers=b&path=gAAAgAAA"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if store.get("s1") != want {
		t.Errorf("store holds %q", store.get("s1"))
	}
	if len(pub.changes) != 1 || pub.changes[0].Fragment != want || pub.changes[0].Source != "api" {
		t.Errorf("unexpected published changes: %+v", pub.changes)
	}
}

func TestFragmentService_Update_NoChangeSkipsWrite(t *testing.T) {
	store := newMockFragmentStore(map[string]string{"s1": "map=3/1/2"})
	pub := &mockPublisher{}
	svc := usecases.NewFragmentService(store, pub)

	_, err := svc.Update(context.Background(), "s1", "api", func(st *fragment.State) error {
		st.Set("map", "3/1/2")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.replaces != 0 || len(pub.changes) != 0 {
		t.Errorf("expected no write, got %d replaces and %d events", store.replaces, len(pub.changes))
	}
}

func TestFragmentService_Update_CallbackError(t *testing.T) {
	store := newMockFragmentStore(map[string]string{"s1": "a=1"})
	svc := usecases.NewFragmentService(store, nil)
	boom := errors.New("boom")

	_, err := svc.Update(context.Background(), "s1", "api", func(st *fragment.State) error {
		st.Delete("a")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if store.get("s1") != "a=1" {
		t.Errorf("fragment should be untouched, got %q", store.get("s1"))
	}
}

func TestFragmentService_Update_LoadError(t *testing.T) {
	store := newMockFragmentStore(nil)
	store.loadErr = errors.New("valkey down")
	svc := usecases.NewFragmentService(store, nil)
	if _, err := svc.Update(context.Background(), "s1", "api", func(*fragment.State) error { return nil }); err == nil {
		t.Fatal("expected error")
	}
}

func TestFragmentService_PublishErrorDoesNotFail(t *testing.T) {
	store := newMockFragmentStore(nil)
	svc := usecases.NewFragmentService(store, &mockPublisher{err: errors.New("nats down")})
	if _, err := svc.Replace(context.Background(), "s1", "a=1", "api"); err != nil {
		t.Fatalf("publish failures must not fail the write: %v", err)
	}
	if store.get("s1") != "a=1" {
		t.Errorf("expected stored fragment, got %q", store.get("s1"))
	}
}

func TestFragmentService_Patch(t *testing.T) {
	store := newMockFragmentStore(map[string]string{"s1": "path=AAAAAAAA&x=1&y"})
	svc := usecases.NewFragmentService(store, nil)

	v := "gAAAgAAA"
	got, err := svc.Patch(context.Background(), "s1",
		map[string]*string{"path": &v, "flag": nil},
		[]string{"path", "y"}, "api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "x=1&flag&path=gAAAgAAA"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFragmentService_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	store := newMockFragmentStore(nil)
	svc := usecases.NewFragmentService(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.Update(context.Background(), "s1", "api", func(st *fragment.State) error {
				st.Set(fmt.Sprintf("k%d", i), "1")
				return nil
			})
		}(i)
	}
	wg.Wait()

	if n := fragment.Parse(store.get("s1")).Len(); n != 50 {
		t.Errorf("expected 50 keys, got %d", n)
	}
}
