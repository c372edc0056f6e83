// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package engine defines the contract of the compositing engine and its
// persisted configuration.
//
// The engine is an explicitly constructed value. Callers own its
// lifecycle:
//
//	eng := soft.New()
//	cfg, err := engine.LoadConfig(dirs)
//	if err != nil {
//	    return err
//	}
//	if err := eng.Initialize(ctx, cfg); err != nil {
//	    return err
//	}
//	defer eng.Shutdown(ctx)
//
// How layers are rendered is up to the implementation. The package
// engine/soft provides a software reference engine.
package engine
