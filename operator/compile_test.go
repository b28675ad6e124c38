// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package operator

import (
	"errors"
	"testing"

	"code.hybscloud.com/datareader/pipeline"
)

type fakeBuilder struct {
	decoded bool
	resized bool
	failAt  int
	calls   int
}

func (b *fakeBuilder) Decode(DecodeOptions) error           { b.decoded = true; return nil }
func (b *fakeBuilder) Resize(ResizeOptions) error           { b.resized = true; return nil }
func (b *fakeBuilder) ResizeShort(ResizeShortOptions) error { return nil }
func (b *fakeBuilder) Crop(CropOptions) error               { return nil }
func (b *fakeBuilder) CenterCrop(CenterCropOptions) error   { return nil }
func (b *fakeBuilder) RandomCrop(RandomCropOptions) error   { return nil }
func (b *fakeBuilder) Rotate(RotateOptions) error           { return nil }
func (b *fakeBuilder) Flip(FlipOptions) error               { return nil }
func (b *fakeBuilder) ToCHW() error                         { return nil }
func (b *fakeBuilder) Lua(LuaOptions) error                 { return nil }

type decodeOp struct{}

func (decodeOp) Apply(s pipeline.Sample) (pipeline.Sample, error) { return s, nil }
func (decodeOp) AppendPlan(b PlanBuilder) error { return b.Decode(DecodeOptions{ToRGB: true}) }

type resizeOp struct{}

func (resizeOp) Apply(s pipeline.Sample) (pipeline.Sample, error) { return s, nil }
func (resizeOp) AppendPlan(b PlanBuilder) error { return b.Resize(ResizeOptions{W: 224, H: 224}) }

// genericOp has no AppendPlan method at all.
type genericOp struct {
	fn func(pipeline.Sample) (pipeline.Sample, error)
}

func (g genericOp) Apply(s pipeline.Sample) (pipeline.Sample, error) { return g.fn(s) }

func TestCompileFullyAccelerated(t *testing.T) {
	b := &fakeBuilder{}
	post, err := Compile([]Operator{decodeOp{}, resizeOp{}}, b)
	if err != nil {
		t.Fatal(err)
	}
	if post != nil {
		t.Fatalf("expected nil postMapper when fully accelerated, got %#v", post)
	}
	if !b.decoded || !b.resized {
		t.Fatal("expected both ops appended to the plan")
	}
}

func TestCompileFallsBackAtFirstGenericOp(t *testing.T) {
	b := &fakeBuilder{}
	upper := genericOp{fn: func(s pipeline.Sample) (pipeline.Sample, error) {
		return s.WithPayload(append(append([]byte{}, s.Payload()...), 'X')), nil
	}}
	post, err := Compile([]Operator{decodeOp{}, upper, resizeOp{}}, b)
	if err != nil {
		t.Fatal(err)
	}
	if post == nil {
		t.Fatal("expected a postMapper covering the generic tail")
	}
	if !b.decoded {
		t.Fatal("expected decodeOp appended before the fallback")
	}
	if b.resized {
		t.Fatal("resizeOp comes after the generic op and must not be appended to the plan")
	}
	out, err := post.Apply(pipeline.Sample{[]byte("ab"), 7})
	if err != nil {
		t.Fatal(err)
	}
	if string(out.Payload()) != "abX" {
		t.Fatalf("expected payload abX, got %q", out.Payload())
	}
	if out[1].(int) != 7 {
		t.Fatal("expected tag to survive through ComposeMapper")
	}
}

type refusingOp struct{}

func (refusingOp) Apply(s pipeline.Sample) (pipeline.Sample, error) { return s, nil }
func (refusingOp) AppendPlan(PlanBuilder) error                     { return ErrNoAccelerated }

func TestCompileRefusedPlanFallsBack(t *testing.T) {
	b := &fakeBuilder{}
	post, err := Compile([]Operator{refusingOp{}}, b)
	if err != nil {
		t.Fatal(err)
	}
	if post == nil {
		t.Fatal("expected fallback mapper")
	}
}

func TestCompilePropagatesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	op := opWithErr{err: boom}
	_, err := Compile([]Operator{op}, &fakeBuilder{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom to propagate, got %v", err)
	}
}

type opWithErr struct{ err error }

func (opWithErr) Apply(s pipeline.Sample) (pipeline.Sample, error) { return s, nil }
func (o opWithErr) AppendPlan(PlanBuilder) error                   { return o.err }
