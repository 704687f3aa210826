// Package websocket pushes dataset notifications to dashboard clients.
//
// A single Hub goroutine owns the client set. Each connection runs a read
// pump and a write pump; only the write pump writes to the socket. Slow
// clients whose send buffer fills up are disconnected instead of blocking
// broadcasts.
package websocket
