// Package server implements the transport and coordination layer of ChatFlow.
//
// The implementation is organized into specialized files for configuration,
// the hub event loop, the broadcast router, the session coordinator, clients,
// the wire protocol, and HTTP handlers to keep the codebase maintainable and
// testable as the project grows. The chat room state itself lives in
// internal/chat; everything here exists to move events between WebSocket
// connections and that state.
package server
