// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

import (
	"errors"
	"fmt"

	"github.com/gogpu/stage/gl"
)

// ErrUnsupportedDevice is returned when the device lacks a feature the
// renderer cannot work without.
var ErrUnsupportedDevice = errors.New("stage: unsupported device")

// ContextSystem owns the device and its lifecycle. Each time a context
// becomes active it gets a fresh UID; every per-context cache in the
// package is keyed by that UID, so records from dead contexts are never
// mistaken for live ones.
type ContextSystem struct {
	renderer *Renderer

	device gl.Device
	uid    int
	lost   bool

	// created is true when this system opened the device itself and is
	// responsible for releasing it.
	created bool
}

func newContextSystem(r *Renderer) *ContextSystem {
	return &ContextSystem{renderer: r}
}

// initFromDevice adopts an existing device.
func (s *ContextSystem) initFromDevice(dev gl.Device) error {
	caps := dev.Caps()
	if !caps.Features.Has(gl.FeatureVertexArrays) {
		return fmt.Errorf("%w: vertex arrays are required", ErrUnsupportedDevice)
	}
	s.device = dev
	s.uid = nextUID()
	dev.SetContextHandler(s.onContextLost, s.onContextRestored)
	Logger().Info("context created",
		"uid", s.uid,
		"max_texture_size", caps.MaxTextureSize,
		"texture_units", caps.MaxTextureUnits,
		"features", caps.Features.String())
	return nil
}

// initFromOptions opens a device through the driver registry. An empty
// driver name picks the best registered driver.
func (s *ContextSystem) initFromOptions(opts gl.Options, driver string) error {
	var (
		dev gl.Device
		err error
	)
	if driver == "" {
		dev, err = gl.Open(opts)
	} else {
		dev, err = gl.OpenNamed(driver, opts)
	}
	if err != nil {
		return err
	}
	if err := s.initFromDevice(dev); err != nil {
		dev.Release()
		return err
	}
	s.created = true
	return nil
}

// Device returns the active device.
func (s *ContextSystem) Device() gl.Device { return s.device }

// UID identifies the active context. It changes on every restore.
func (s *ContextSystem) UID() int { return s.uid }

// IsLost reports whether the context is currently lost.
func (s *ContextSystem) IsLost() bool { return s.lost }

// onContextLost flips the system into the lost state. GPU resource
// handles died with the context; nothing is released here, the caches
// are dropped when a fresh context arrives.
func (s *ContextSystem) onContextLost() {
	s.lost = true
	Logger().Warn("context lost", "uid", s.uid)
}

// onContextRestored assigns a fresh context UID and tells every system
// to rebuild its device state. Lazy re-creation does the rest: textures,
// buffers and programs are compiled again on their next use.
func (s *ContextSystem) onContextRestored() {
	oldUID := s.uid
	s.uid = nextUID()
	s.lost = false
	Logger().Info("context restored", "old_uid", oldUID, "uid", s.uid)
	s.renderer.contextChange(oldUID)
}

// Destroy releases the device if this system opened it.
func (s *ContextSystem) Destroy() {
	if s.created && s.device != nil {
		s.device.Release()
	}
	s.device = nil
}
