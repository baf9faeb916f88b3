// Package demo is a small contact book built on the request bus. It shows
// every dispatch feature end to end:
//
//   - Ping and AsyncPing are anonymous, the latter served by an async handler.
//   - LoginUser and LogoutUser issue and revoke bearer tokens.
//   - SaveContact runs in a transaction, defers a SendEmail request through
//     the queue with the caller identity and publishes an Alert.
//   - Alert listeners push to connected websocket clients.
//   - DeleteContact is restricted to the Admin role.
//
// Contacts live in a store.MemoryStore (MemoryContacts) or in PostgreSQL
// (PGContacts, schema in Migrations).
package demo
