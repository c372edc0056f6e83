// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package resource

import (
	"github.com/gogpu/framebridge"
)

// violation reports a lifecycle violation and returns it as an error.
func violation(res, op, state string) error {
	err := &framebridge.LifecycleError{Resource: res, Op: op, State: state}
	framebridge.Logger().Error("resource: lifecycle violation",
		"resource", res, "op", op, "state", state)
	if panicOnViolation {
		panic(err)
	}
	return err
}
