// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package operator

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"code.hybscloud.com/datareader/pipeline"
)

// ComposeMapper chains a run of operators into a single Operator,
// applying each in order to the sample's payload only and leaving tags
// untouched — the Go shape of the original's choose_first_param-wrapped
// build_mapper.
type ComposeMapper []Operator

// Apply implements Operator.
func (c ComposeMapper) Apply(s pipeline.Sample) (pipeline.Sample, error) {
	cur := pipeline.Sample{s.Payload()}
	for _, op := range c {
		var err error
		cur, err = op.Apply(cur)
		if err != nil {
			return nil, err
		}
	}
	return s.WithPayload(cur.Payload()), nil
}

// Compile walks ops in order, appending each to builder's accelerated
// plan via its PlanAppender capability. The first operator that either
// doesn't implement PlanAppender or returns ErrNoAccelerated, and every
// operator after it, are combined into one generic ComposeMapper
// returned as postMapper. If every operator was appended to the plan,
// postMapper is nil. This reproduces the original's
// make_cpp_plan/build_mapper split.
func Compile(ops []Operator, builder PlanBuilder) (postMapper Operator, err error) {
	for i, op := range ops {
		pa, ok := op.(PlanAppender)
		if !ok {
			return composeFrom(ops, i), nil
		}
		if err := pa.AppendPlan(builder); err != nil {
			if errors.Is(err, ErrNoAccelerated) {
				return composeFrom(ops, i), nil
			}
			return nil, fmt.Errorf("operator: appending plan for op %d: %w", i, err)
		}
	}
	return nil, nil
}

func composeFrom(ops []Operator, i int) Operator {
	rest := ops[i:]
	logrus.WithField("component", "operator").
		Debugf("left last %d ops for the generic mapper", len(rest))
	cp := make(ComposeMapper, len(rest))
	copy(cp, rest)
	return cp
}
