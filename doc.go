// Package hostbridge lets code running inside a wallet host's WebView talk
// to the host application. The host accepts one outbound call carrying a
// "<COMMAND>|<json>" string and, later and in any order, pushes results and
// state back on named channels.
//
// The bridge correlates the two directions. Correlated commands such as
// SEND_TX carry a pendingTxId allocated by the bridge; the host answers on
// TX_PENDING_RESULT with that id, and the bridge completes exactly the
// request that is waiting for it. Pushes on state channels (TOKEN_INFO,
// PAYMENT_ADDRESS, DEVICE_ID and friends) update a per-channel slot and
// notify every subscriber. Unknown, stale or duplicate pushes are ignored.
//
// Service wires the bridge onto a Watermill router and the in-process
// gochannel transport. Commands leave on Config.CommandTopic; host pushes
// arrive on Config.PushTopic with the channel name in the bridge_channel
// metadata key. Client exposes the application-facing calls:
//
//	svc, err := hostbridge.NewService(&hostbridge.Config{}, logger, ctx, hostbridge.ServiceDependencies{})
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	go svc.Start(ctx)
//	<-svc.Running()
//
//	res, err := svc.Client().Transfer(ctx, paymentAddress, 300, "prize")
//
// # Middleware
//
// The default middleware chain includes correlation ID injection, structured
// logging, OpenTelemetry tracing, Prometheus metrics and panic recovery.
// Custom middleware can be added via ServiceDependencies.Middlewares.
//
// # Lifecycle
//
// Requests the host never answers stay pending until Config.RequestTimeout
// expires (disabled by default) or Service.Close rejects them with
// ErrRegistryClosed.
package hostbridge
