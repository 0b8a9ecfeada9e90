// Package reflow is a replay-aware durable message consumption client.
//
// Message brokers with durable replay logs can re-initiate delivery of a
// historical log segment into a live subscription ("replay"). When that
// happens, the client must tear down its flow binding and recreate it to
// receive the replayed messages. reflow owns that lifecycle: it detects
// replay conditions from asynchronous binding events, defers the unsafe
// destroy/recreate work out of the broker's callback context, and drives
// it synchronously from a consumption loop.
//
// Core pieces:
//   - Consumer: the top-level driver. Binds a flow, counts and
//     acknowledges delivered messages, and rebinds when the broker
//     signals a replay.
//   - types.Transport: the capability set reflow needs from a messaging
//     transport. transport/natsjs implements it on NATS JetStream.
//
// Replay semantics are deliberately at-least-once: every replay cycle
// redelivers the full requested log segment, and redelivered messages
// are counted again. Deduplication is out of scope.
//
// Basic usage:
//
//	tr, err := natsjs.Connect(ctx, endpoint, creds, natsjs.Config{Stream: "orders"})
//	if err != nil { ... }
//	defer tr.Disconnect(ctx)
//
//	cfg := reflow.DefaultConfig()
//	cfg.Bind.Queue = "orders"
//	cfg.MessageTarget = 10
//
//	consumer, err := reflow.NewConsumer(&cfg, tr, reflow.WithLogger(logger))
//	if err != nil { ... }
//	err = consumer.Run(ctx) // blocks until target reached or ctx done
package reflow
