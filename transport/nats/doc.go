// Package nats publishes game events to a NATS server.
//
// Each event produced by a click, a new deal or a restart is sent as one
// JSON message on
//
//	<prefix>.sessions.<session id>.events
//
// with the prefix defaulting to "klondike". Subscribers can follow every
// session with klondike.sessions.*.events, which is what Watch does for
// the CLI's watch command.
//
// Publishing is fire-and-forget: the game service logs failures and never
// fails a click because the broker is down.
//
// Usage:
//
//	nc, err := nats.Connect(os.Getenv("NATS_URL"), "klondike-server")
//	if err != nil {
//		return err
//	}
//	publisher := nats.NewPublisher(nc, "klondike")
//	defer publisher.Close()
//
//	svc := service.NewGameService(sessions, configs, service.WithEventPublisher(publisher))
package nats
