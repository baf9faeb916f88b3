// Package notify pushes bus notifications to browser clients over
// websockets.
//
// Hub keeps one broadcast subscription per connected client and writes every
// published notification as a JSON frame:
//
//	{"type":"Alert","payload":{"Message":"Contact saved"}}
//
// NewListener decorates a command.Listener so that notifications it handles
// are also published through the hub:
//
//	hub := notify.NewHub(notify.WithLogger(log))
//	reg.MustSubscribe(notify.NewListener(command.NewListenerFunc(onAlert), hub))
//	mux.Handle("/notifications", hub)
//
// Clients that fall behind by more than the buffer size miss frames rather
// than slowing publishers down.
package notify
