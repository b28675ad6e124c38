// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package operator defines the external-collaborator contract for
// per-sample transformations (decode, resize, crop, ...) and the
// accelerated-plan/generic-mapper compile step that splits a chain of
// operators between a native plan builder and a fallback Go mapper.
package operator

import (
	"errors"

	"code.hybscloud.com/datareader/pipeline"
)

// Operator is a pure mapping from sample to sample: any callable
// f(sample) -> sample.
type Operator interface {
	Apply(pipeline.Sample) (pipeline.Sample, error)
}

// PlanAppender is the optional capability an Operator exposes to
// contribute to an accelerated plan instead of running through the
// generic mapper. AppendPlan returns ErrNoAccelerated when this
// operator (and, by Compile's rule, everything after it) cannot be
// expressed on builder.
type PlanAppender interface {
	AppendPlan(PlanBuilder) error
}

// ErrNoAccelerated signals that an operator has no accelerated-plan
// equivalent; Compile treats it and the operators after it as a single
// generic ComposeMapper.
var ErrNoAccelerated = errors.New("operator: no accelerated plan available")

// OperatorFunc adapts a plain function to Operator.
type OperatorFunc func(pipeline.Sample) (pipeline.Sample, error)

// Apply implements Operator.
func (f OperatorFunc) Apply(s pipeline.Sample) (pipeline.Sample, error) { return f(s) }
