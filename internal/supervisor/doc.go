// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

/*
Package supervisor provides process supervision for Cycles using suture v4.

Every long-running component runs as a suture.Service inside a three-layer
tree, so a crashed component is restarted with backoff without stopping the
rest of the process.

# Overview

	RootSupervisor ("cycles")
	├── DataSupervisor ("data-layer")
	│   └── StoreMonitorService
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService
	│   └── MailDispatcherService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Restarts:
  - failures are counted per supervisor and decay over FailureDecay seconds
  - above FailureThreshold the supervisor waits FailureBackoff before restarting

Shutdown:
  - canceling the Serve context stops every layer
  - each service gets ShutdownTimeout to return
  - UnstoppedServiceReport names the services that did not

Supervisor events are logged through sutureslog on the slog bridge to
zerolog (see logging.NewSlogLogger).

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewStoreMonitorService(st, cfg.Storage.Backend, 30*time.Second))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewMailDispatcherService(newDispatcher))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)
*/
package supervisor
