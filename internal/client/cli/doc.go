// Package cli is the interactive ProjectHub terminal client.
//
// App ties together the session, the gRPC backend and the file workflows,
// and serves a prompt until the user exits. Every command that touches
// projects, files or the team asks the session for the needed capability,
// or runs the project access gate, before it calls the server. A background
// watcher pings the server and shows whether the client is online.
package cli
