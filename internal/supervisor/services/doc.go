// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

/*
Package services adapts Cycles components to suture.Service.

Each wrapper translates a component's own lifecycle into

	Serve(ctx context.Context) error

returning ctx.Err() on a requested shutdown and a non-nil error on a crash
so the supervisor restarts it. Wrappers implement fmt.Stringer; suture uses
the name in its event log.

Available services:

  - HTTPServerService: ListenAndServe with graceful Shutdown
  - WebSocketHubService: the chat hub command loop
  - MailDispatcherService: the outbox consumer; a fresh dispatcher is built
    for every run because a stopped router cannot be restarted
  - StoreMonitorService: periodic store ping feeding the store_up gauge
*/
package services
