// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"fmt"
	"io"
)

// ErrResponseTooLarge is returned by ReadLimited when the reader holds
// more than the allowed number of bytes.
var ErrResponseTooLarge = errors.New("response exceeds size limit")

// ReadLimited reads r to EOF, failing with ErrResponseTooLarge once
// more than limit bytes arrive. A read that ends with an expected close
// error (see IsExpectedCloseError) is treated as EOF: the bytes read so
// far are returned without error.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil && !IsExpectedCloseError(err) {
		return data, err
	}
	if int64(len(data)) > limit {
		return data[:limit], fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, limit)
	}
	return data, nil
}
