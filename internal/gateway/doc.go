// Package gateway is the server core of parley-gateway.
//
// It wires the SQLite store, the conversation service, and the agent layer
// behind a single HTTP server carrying two surfaces:
//
//   - a JSON config API (/add_config, /get_config, /client/list, /list/{id})
//     for managing bot configurations, and
//   - a WebSocket chat surface (/chat/{client_id}/{config_id}/{chat_id})
//     where each connection runs its own Session state machine.
//
// A Session owns all per-connection state. It loads the bot config once at
// connect time, replays configured initial messages on a fresh chat, then
// processes inbound text frames one at a time: a successful turn answers with
// the raw reply text, a failed turn answers with a single JSON error frame
// and leaves the connection open. Sessions never share mutable state;
// isolation across chats is by construction.
//
// The listener is either a plain TCP socket or a Tailscale tsnet node,
// optionally with HTTPS certs or public Funnel exposure.
package gateway
