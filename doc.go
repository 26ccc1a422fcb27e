// Package eventrouter is an in-process, type-keyed publish/subscribe core.
//
// Subscribers are plain functions of one event type. Each event type has a
// CallbackRegistry, kept in a Store that the application creates and shares
// between any number of Routers:
//
//	store := eventrouter.NewStore()
//	router := eventrouter.NewRouter(store)
//
//	h := eventrouter.Subscribe(router, func(e LevelUp) {
//	    fmt.Println("level", e.Level)
//	})
//	defer eventrouter.Unsubscribe[LevelUp](router, h)
//
// # Delivery
//
// PublishImmediate calls the current subscribers before it returns.
// PublishDeferred only queues the event; Router.Poll delivers everything
// queued since the previous poll, type by type in the order the types became
// pending, and event by event in publish order. Deferred events stack: N
// publishes before a poll give N deliveries to each subscriber present when
// the poll runs.
//
// Delivery order among subscribers of one type is subscription order until
// the first Unsubscribe on that type; removal moves the last subscriber into
// the freed slot.
//
// # Handles
//
// Subscribe returns a Handle that stays valid until it is passed to
// Unsubscribe. Released handles are reused, most recent first, so a later
// subscription may get a handle equal to an earlier one. Unsubscribing a
// handle that is not live is a programming error and panics with a
// *HandleError (errors.Is(err, ErrUnknownHandle)).
//
// # Concurrency
//
// Nothing in this package locks. Use a Store and its routers from one
// goroutine, or guard every call with a single mutex. Callbacks must not
// publish immediately, subscribe or unsubscribe on the type they are
// handling; deferring an event of that type is fine and waits for the next
// poll.
package eventrouter
