// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package operator

// Interpolation selects a resampling kernel, shared by Resize,
// ResizeShort, and RandomCrop.
type Interpolation int

const (
	Nearest Interpolation = iota
	Linear
	Cubic
	Area
	Lanczos4
	LinearExact
	Max
	WarpFillOutliers
)

// FlipCode selects the flip axis.
type FlipCode int

const (
	TopBottom FlipCode = iota
	LeftRight
)

// DecodeOptions configures the decode op.
type DecodeOptions struct {
	ToRGB bool // false selects UNCHANGED
}

// ResizeOptions configures the resize op.
type ResizeOptions struct {
	W, H          int
	Interpolation Interpolation
}

// ResizeShortOptions configures the resize_short op.
type ResizeShortOptions struct {
	ShortSize     int
	Interpolation Interpolation
}

// CropOptions configures a fixed-offset crop.
type CropOptions struct {
	X, Y, W, H int
}

// CenterCropOptions configures center_crop.
type CenterCropOptions struct {
	W, H       int
	CropCenter bool
}

// RandomCropOptions configures random_crop.
type RandomCropOptions struct {
	FinalSize          int
	ScaleMin, ScaleMax float64
	RatioMin, RatioMax float64
	Interpolation      Interpolation
}

// RotateOptions configures rotate. Exactly one of Angle or RandomRange
// is set; the other is nil.
type RotateOptions struct {
	Angle       *float64
	RandomRange *float64
}

// FlipOptions configures flip.
type FlipOptions struct {
	Code   FlipCode
	Random bool
}

// LuaOptions configures the lua op. Exactly one of LuaFname or LuaCode
// is non-empty.
type LuaOptions struct {
	LuaFname string
	LuaCode  string
	ToCHW    bool
}

// PlanBuilder is an opaque sink for an accelerated transformation plan;
// concrete implementations live outside this module. Every method
// returns ErrNoAccelerated when the builder cannot represent that
// operation, letting Compile fall back to the generic mapper.
type PlanBuilder interface {
	Decode(DecodeOptions) error
	Resize(ResizeOptions) error
	ResizeShort(ResizeShortOptions) error
	Crop(CropOptions) error
	CenterCrop(CenterCropOptions) error
	RandomCrop(RandomCropOptions) error
	Rotate(RotateOptions) error
	Flip(FlipOptions) error
	ToCHW() error
	Lua(LuaOptions) error
}
