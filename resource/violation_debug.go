// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build framedebug

package resource

// panicOnViolation is true in framedebug builds: violations are fatal.
const panicOnViolation = true
