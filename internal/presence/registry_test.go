package presence_test

import (
	"reflect"
	"testing"

	"github.com/unclebandit/dripflow-backend/internal/presence"
)

func TestJoinCreatesRoom(t *testing.T) {
	r := presence.NewRegistry()

	r.Join("c1", "u1")

	if !r.Active("c1") {
		t.Fatal("room must exist after first join")
	}
	if got := r.Members("c1"); !reflect.DeepEqual(got, []string{"u1"}) {
		t.Errorf("expected [u1], got %v", got)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	r := presence.NewRegistry()

	r.Join("c1", "u1")
	r.Join("c1", "u1")

	if got := r.Members("c1"); !reflect.DeepEqual(got, []string{"u1"}) {
		t.Errorf("double join must have no extra effect, got %v", got)
	}
}

func TestRoomLifecycle(t *testing.T) {
	r := presence.NewRegistry()

	r.Join("c1", "u1")
	r.Join("c1", "u2")
	if got := r.Members("c1"); !reflect.DeepEqual(got, []string{"u1", "u2"}) {
		t.Fatalf("expected [u1 u2], got %v", got)
	}

	r.Leave("c1", "u1")
	if got := r.Members("c1"); !reflect.DeepEqual(got, []string{"u2"}) {
		t.Fatalf("expected [u2] after u1 left, got %v", got)
	}

	r.Leave("c1", "u2")
	if r.Active("c1") {
		t.Error("room must be deleted when the last member leaves")
	}
	if got := r.Members("c1"); len(got) != 0 {
		t.Errorf("expected no members for removed room, got %v", got)
	}
}

func TestLeaveUnknownRoomIsNoOp(t *testing.T) {
	r := presence.NewRegistry()

	r.Leave("c-missing", "u1")

	if r.Active("c-missing") {
		t.Error("leave must not create rooms")
	}
}

func TestRoomsAreIndependent(t *testing.T) {
	r := presence.NewRegistry()

	r.Join("c1", "u1")
	r.Join("c2", "u1")
	r.Leave("c1", "u1")

	if r.Active("c1") {
		t.Error("c1 should be gone")
	}
	if !r.Active("c2") {
		t.Error("c2 must be unaffected")
	}
}
