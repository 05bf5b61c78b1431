// Package shared contains data shared between the coordinator and watcher processes.
package shared

import "github.com/hashicorp/go-plugin"

// Handshake is the handshake between the coordinator and the watcher processes it spawns.
var Handshake = plugin.HandshakeConfig{
	// ProtocolVersion must be bumped whenever the watcher RPC interface changes.
	ProtocolVersion: 1,
	// The magic cookie values should NEVER be changed.
	MagicCookieKey:   "SHUTDOWND_WATCHER_COOKIE",
	MagicCookieValue: "8f1c2a6e-5d3b-4c9a-9e47-2b7d0c61f5a3",
}

// PluginName is the name under which the watcher dispenses its status service.
const PluginName = "watcher"

// Subcommand is the argument that makes the shutdownd binary run as a watcher.
const Subcommand = "watcher"
