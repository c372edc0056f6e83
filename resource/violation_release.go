// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !framedebug

package resource

// panicOnViolation is false in regular builds: violations are returned.
const panicOnViolation = false
