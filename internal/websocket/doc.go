// Tripwire - Request Threat Detection Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripwire

/*
Package websocket provides the live security feed for dashboards.

It uses gorilla/websocket with a hub-client architecture. The detection engine
publishes through Hub.BroadcastJSON (the hub satisfies detection.Broadcaster)
and every connected client receives the message.

Key Components:

  - Hub: owns the client set and fans out broadcasts
  - Client: one connection with a read and a write goroutine
  - Message: {"type": ..., "data": ...} envelope

Architecture:

	┌────────────────┐   BroadcastJSON   ┌──────────┐
	│ detection      │ ────────────────► │   Hub    │
	│ engine         │                   └────┬─────┘
	└────────────────┘                        │
	                               ┌──────────┼──────────┐
	                               │          │          │
	                            Client1    Client2    Client3

Each client has two goroutines:
  - readPump: reads client pings, refreshes the read deadline on pong
  - writePump: writes queued messages and periodic pings

Message Types:

  - threat_event: a threat event was recorded (alert or block)
  - security_metrics: periodic SecurityMetrics snapshot
  - pong: reply to a client {"type":"ping"}

Slow Clients:

A client whose send buffer is full when a broadcast is fanned out is
disconnected rather than allowed to stall the hub. Dropped messages are
counted in websocket_messages_dropped_total.

Lifecycle:

RunWithContext runs under the supervisor. On cancellation every client is
closed with a normal-closure frame and Done is closed, so client goroutines
never block on a stopped hub.
*/
package websocket
