// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package source

import (
	"errors"
	"io"
)

var errEOF = io.EOF

func isEOF(err error) bool { return errors.Is(err, io.EOF) }
