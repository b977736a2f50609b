package stage

import "testing"

func TestTextureCacheIdentity(t *testing.T) {
	c := NewTextureCache()
	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)

	c.Add("hero", base)
	if c.Get("hero") != base {
		t.Fatal("Get must return the registered base")
	}
	if c.Get("missing") != nil {
		t.Error("unknown names must return nil")
	}

	// Re-adding the same base under the same name changes nothing.
	c.Add("hero", base)
	if c.Len() != 1 {
		t.Errorf("len = %d after duplicate Add, want 1", c.Len())
	}
	if base.refs != 1 {
		t.Errorf("refs = %d after duplicate Add, want 1", base.refs)
	}
}

func TestTextureCacheOwnsEntries(t *testing.T) {
	c := NewTextureCache()
	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)

	c.Add("a", base)
	if base.Destroyed() {
		t.Fatal("cached base destroyed while registered")
	}
	if !c.Remove("a") {
		t.Fatal("Remove should report the alias existed")
	}
	if !base.Destroyed() {
		t.Error("sole-owner cache should destroy the base on Remove")
	}
	if c.Remove("a") {
		t.Error("second Remove should report a missing alias")
	}
}

func TestTextureCacheSharesWithViews(t *testing.T) {
	c := NewTextureCache()
	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)
	view := NewTexture(base, nil)

	c.Add("a", base)
	c.Remove("a")
	if base.Destroyed() {
		t.Fatal("base destroyed while a view still holds it")
	}
	view.Destroy()
	if !base.Destroyed() {
		t.Error("base should be destroyed with its last holder")
	}
}

func TestTextureCacheAliases(t *testing.T) {
	c := NewTextureCache()
	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)

	c.Add("a", base)
	c.Add("b", base)
	if ids := base.CacheIDs(); len(ids) != 2 {
		t.Fatalf("cache ids = %v, want two aliases", ids)
	}
	if c.Get("a") != c.Get("b") {
		t.Error("aliases must resolve to the same base")
	}

	c.RemoveTexture(base)
	if c.Len() != 0 {
		t.Errorf("len = %d after RemoveTexture, want 0", c.Len())
	}
	if ids := base.CacheIDs(); len(ids) != 0 {
		t.Errorf("cache ids = %v after RemoveTexture, want none", ids)
	}
	if !base.Destroyed() {
		t.Error("removing every alias should release the base")
	}
}

func TestTextureCacheCollisionReplaces(t *testing.T) {
	c := NewTextureCache()
	old := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)
	next := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)

	c.Add("slot", old)
	c.Add("slot", next)
	if c.Get("slot") != next {
		t.Error("collision should replace the entry")
	}
	if !old.Destroyed() {
		t.Error("replaced entry should be released")
	}
	if len(old.CacheIDs()) != 0 {
		t.Error("replaced entry keeps a stale alias")
	}
}

func TestTextureCacheClear(t *testing.T) {
	c := NewTextureCache()
	a := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)
	b := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)
	c.Add("a", a)
	c.Add("b", b)

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("len = %d after Clear, want 0", c.Len())
	}
	if !a.Destroyed() || !b.Destroyed() {
		t.Error("Clear should release every entry")
	}
}
