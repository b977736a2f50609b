// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

// TextureCache is a named registry of base textures and the owning side
// of the sharing model: the cache holds one reference per entry, while
// consumers Get non-owning handles and wrap their own views. One base
// may be registered under several aliases.
//
// The cache never evicts on its own. Remove and Clear are the explicit
// release points; a base is destroyed once the cache and every view
// have released it.
type TextureCache struct {
	entries map[string]*BaseTexture
}

// NewTextureCache creates an empty cache.
func NewTextureCache() *TextureCache {
	return &TextureCache{entries: make(map[string]*BaseTexture)}
}

// Add registers base under name and takes a reference. Registering a
// different base under a taken name replaces the entry and releases the
// old one; the collision is logged because it usually means two loads
// raced for the same key.
func (c *TextureCache) Add(name string, base *BaseTexture) {
	if prev, ok := c.entries[name]; ok {
		if prev == base {
			return
		}
		Logger().Warn("texture cache name collision", "name", name)
		c.drop(name, prev)
	}
	c.entries[name] = base
	base.cacheIDs = append(base.cacheIDs, name)
	base.acquire()
}

// Get returns the base registered under name, or nil. The handle is
// non-owning; wrap it in a Texture view to hold onto it.
func (c *TextureCache) Get(name string) *BaseTexture {
	return c.entries[name]
}

// Remove drops one alias and releases its reference. It reports whether
// the name was registered.
func (c *TextureCache) Remove(name string) bool {
	base, ok := c.entries[name]
	if !ok {
		return false
	}
	c.drop(name, base)
	return true
}

// RemoveTexture drops every alias of base.
func (c *TextureCache) RemoveTexture(base *BaseTexture) {
	ids := make([]string, len(base.cacheIDs))
	copy(ids, base.cacheIDs)
	for _, name := range ids {
		if c.entries[name] == base {
			c.drop(name, base)
		}
	}
}

// Clear releases every entry.
func (c *TextureCache) Clear() {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	for _, name := range names {
		c.drop(name, c.entries[name])
	}
}

// Len returns the number of registered aliases.
func (c *TextureCache) Len() int { return len(c.entries) }

func (c *TextureCache) drop(name string, base *BaseTexture) {
	delete(c.entries, name)
	for i, id := range base.cacheIDs {
		if id == name {
			base.cacheIDs = append(base.cacheIDs[:i], base.cacheIDs[i+1:]...)
			break
		}
	}
	base.release()
}
