// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package channel provides the dedicated frame channel and the handshake
// that establishes it.
//
// A Pipe is a pair of connected Ports: duplex, in-order and able to carry
// binary payloads. Payload bytes are transferred, not shared: after Send
// the sender must not touch Message.Data again.
//
// The handshake runs once per session:
//
//	UI side                         engine side
//	-------                         -----------
//	Bus.Subscribe("frame-port")
//	control.RequestChannel  ----->  Pipe(); keep one Port
//	                        <-----  Bus.Post(Notification{Kind: "frame-port", Port: other})
//	Port.Start()
//
// The notification travels on the Bus, never on the control channel, and
// the UI side listens for exactly one. Establish has no internal timeout:
// if the notification never arrives it never resolves, and callers bound
// their wait with a context.
package channel
