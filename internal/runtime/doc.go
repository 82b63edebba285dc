/*
Package runtime assembles the host bridge on top of Watermill.

# Architecture Overview

The bridge talks to a host application over a narrow postMessage-style link:
commands go out as "<COMMAND>|<json>" strings and the host answers later, out
of band, by pushing a value on a named channel. The runtime package wires
that link onto a Watermill router and the in-process gochannel transport.

## Core Service (service.go)

The Service struct is the central orchestrator that wires together:
  - Message router (Watermill) and the in-process transport
  - The correlation components from bridge/ (allocator, registry, store,
    dispatcher and inbound router)
  - Middleware chain
  - HTTP servers for metrics and diagnostics

Commands leave through the publisher on the command topic. Host pushes
arrive on the push topic and are consumed by a single router handler, so the
inbound router processes them one at a time.

## Handler Registration (registration.go)

RegisterMessageHandler attaches extra consumers, such as an in-process host
simulator, to the same router.

## Middleware (middleware.go)

  - CorrelationID: Ensures message traceability
  - LogMessages: Debug logging of message payloads
  - Tracer: OpenTelemetry span per handled message
  - Metrics: Prometheus router metrics
  - Recoverer: Panic recovery

## Publishing (publisher.go)

Helpers that turn wire strings into command messages and host values into
push messages.

# Sub-packages

  - bridge/: command dispatch, inbound routing and wire encoding
  - config/: Service configuration with validation
  - errors/: Sentinel errors
  - handlers/: Push context helpers
  - ids/: ULIDs and correlation id allocation
  - jsoncodec/: JSON marshaling utilities
  - logging/: Logger interface and adapters
  - metadata/: Message metadata utilities
  - pending/: Pending request registry and futures
  - sdk/: Application-facing client
  - store/: Channel state slots and subscribers
  - transport/: Transport factory
  - validate/: Precondition checks

# Usage Example

	svc, err := hostbridge.NewService(&hostbridge.Config{}, logger, ctx, hostbridge.ServiceDependencies{})
	if err != nil {
		return err
	}
	defer svc.Close()

	go svc.Start(ctx)
	<-svc.Running()

	res, err := svc.Client().Transfer(ctx, address, 300, "payout")
*/
package runtime
