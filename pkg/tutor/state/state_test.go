package state

import "testing"

func TestStore_UserInfo_AbsentUntilBothSet(t *testing.T) {
	s := NewStore()
	if _, ok := s.UserInfo(); ok {
		t.Fatalf("expected no profile on a fresh store")
	}

	s.SetUserInfo("Vyna", 10)
	p, ok := s.UserInfo()
	if !ok {
		t.Fatalf("expected profile after SetUserInfo")
	}
	if p.Name != "Vyna" || p.Age != 10 {
		t.Fatalf("profile=%q/%d, want Vyna/10", p.Name, p.Age)
	}

	s.SetUserInfo("Budi", -3)
	p, ok = s.UserInfo()
	if !ok || p.Name != "Budi" || p.Age != -3 {
		t.Fatalf("profile=%v ok=%v, want latest overwrite Budi/-3", p, ok)
	}
}

func TestStore_UserInfo_AbsentForEmptyName(t *testing.T) {
	s := NewStore()
	s.SetUserInfo("", 9)
	if _, ok := s.UserInfo(); ok {
		t.Fatalf("expected empty name to read as unknown")
	}
}

func TestStore_UserInfo_FreshIDPerRead(t *testing.T) {
	s := NewStore()
	s.SetUserInfo("Sari", 11)
	a, _ := s.UserInfo()
	b, _ := s.UserInfo()
	if a.ID == b.ID {
		t.Fatalf("profile reads must synthesize fresh ids, got %q twice", a.ID)
	}
}

func TestStore_AddComponent_OrderAndDistinctIDs(t *testing.T) {
	s := NewStore()
	contents := []string{"a", "b", "c", "d"}
	seen := make(map[string]struct{})
	for want, content := range contents {
		c, index := s.AddComponent(content)
		if index != want {
			t.Fatalf("index=%d, want %d", index, want)
		}
		if c.IsShowed {
			t.Fatalf("new component must start hidden")
		}
		if _, dup := seen[c.ID]; dup {
			t.Fatalf("duplicate component id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	if s.ComponentCount() != len(contents) {
		t.Fatalf("count=%d, want %d", s.ComponentCount(), len(contents))
	}
}

func TestStore_ToggleComponent_Involution(t *testing.T) {
	s := NewStore()
	c, _ := s.AddComponent("Segitiga siku-siku")

	once, ok := s.ToggleComponent(c.ID)
	if !ok || !once.IsShowed {
		t.Fatalf("first toggle: showed=%v ok=%v, want true/true", once.IsShowed, ok)
	}
	twice, ok := s.ToggleComponent(c.ID)
	if !ok || twice.IsShowed {
		t.Fatalf("second toggle: showed=%v ok=%v, want false/true", twice.IsShowed, ok)
	}

	got, _ := s.Component(c.ID)
	if got.IsShowed != c.IsShowed {
		t.Fatalf("double toggle must restore the original state")
	}
}

func TestStore_ToggleComponent_UnknownID(t *testing.T) {
	s := NewStore()
	s.AddComponent("x")
	if _, ok := s.ToggleComponent("nope"); ok {
		t.Fatalf("unknown id must report not found")
	}
}

func TestStore_Component_UnknownID(t *testing.T) {
	s := NewStore()
	if _, ok := s.Component("missing"); ok {
		t.Fatalf("lookup on empty store must report not found")
	}
}
