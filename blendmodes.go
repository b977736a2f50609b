// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

import "github.com/gogpu/stage/gl"

// BlendMode selects how source pixels combine with the destination.
//
// The plain modes assume premultiplied alpha, which is how every texture
// uploaded through this package is stored. The NPM variants exist for
// content uploaded with AlphaStraight.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendAdd
	BlendMultiply
	BlendScreen
	BlendNormalNPM
	BlendAddNPM
	BlendScreenNPM
	BlendNone
	BlendErase
	BlendSubtract

	blendModeCount
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "normal"
	case BlendAdd:
		return "add"
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	case BlendNormalNPM:
		return "normal-npm"
	case BlendAddNPM:
		return "add-npm"
	case BlendScreenNPM:
		return "screen-npm"
	case BlendNone:
		return "none"
	case BlendErase:
		return "erase"
	case BlendSubtract:
		return "subtract"
	}
	return "unknown"
}

// blendEntry is the device configuration for one blend mode.
type blendEntry struct {
	srcRGB, dstRGB     gl.BlendFactor
	srcAlpha, dstAlpha gl.BlendFactor
	opRGB, opAlpha     gl.BlendOp
}

// blendTable maps each BlendMode to blend factors and equations.
var blendTable = [blendModeCount]blendEntry{
	BlendNormal:    {gl.One, gl.OneMinusSrcAlpha, gl.One, gl.OneMinusSrcAlpha, gl.BlendAdd, gl.BlendAdd},
	BlendAdd:       {gl.One, gl.One, gl.One, gl.One, gl.BlendAdd, gl.BlendAdd},
	BlendMultiply:  {gl.DstColor, gl.OneMinusSrcAlpha, gl.One, gl.OneMinusSrcAlpha, gl.BlendAdd, gl.BlendAdd},
	BlendScreen:    {gl.One, gl.OneMinusSrcColor, gl.One, gl.OneMinusSrcAlpha, gl.BlendAdd, gl.BlendAdd},
	BlendNormalNPM: {gl.SrcAlpha, gl.OneMinusSrcAlpha, gl.One, gl.OneMinusSrcAlpha, gl.BlendAdd, gl.BlendAdd},
	BlendAddNPM:    {gl.SrcAlpha, gl.One, gl.One, gl.One, gl.BlendAdd, gl.BlendAdd},
	BlendScreenNPM: {gl.SrcAlpha, gl.OneMinusSrcColor, gl.One, gl.OneMinusSrcAlpha, gl.BlendAdd, gl.BlendAdd},
	BlendNone:      {gl.Zero, gl.One, gl.Zero, gl.One, gl.BlendAdd, gl.BlendAdd},
	BlendErase:     {gl.Zero, gl.OneMinusSrcAlpha, gl.Zero, gl.OneMinusSrcAlpha, gl.BlendAdd, gl.BlendAdd},
	BlendSubtract:  {gl.One, gl.One, gl.One, gl.One, gl.BlendReverseSubtract, gl.BlendAdd},
}

// npmVariant maps a premultiplied blend mode to its straight-alpha twin.
// Modes without a twin map to themselves.
var npmVariant = map[BlendMode]BlendMode{
	BlendNormal: BlendNormalNPM,
	BlendAdd:    BlendAddNPM,
	BlendScreen: BlendScreenNPM,
}

// correctBlendMode picks the blend mode matching the alpha storage of the
// content being drawn. Premultiplied content keeps the requested mode;
// straight-alpha content is switched to the NPM variant when one exists.
func correctBlendMode(mode BlendMode, premultiplied bool) BlendMode {
	if premultiplied {
		return mode
	}
	if npm, ok := npmVariant[mode]; ok {
		return npm
	}
	return mode
}
