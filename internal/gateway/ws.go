// ABOUTME: WebSocket upgrade handler and transport adapter for chat sessions
// ABOUTME: Parses /chat/{client_id}/{config_id}/{chat_id} and runs a Session per connection

package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/coder/websocket"
)

// wsTransport adapts a coder/websocket connection to the session Transport.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) ReadText(ctx context.Context) (string, error) {
	for {
		typ, data, err := t.conn.Read(ctx)
		if err != nil {
			return "", err
		}
		// Binary frames are not part of the protocol; skip them.
		if typ != websocket.MessageText {
			continue
		}
		return string(data), nil
	}
}

func (t *wsTransport) WriteText(ctx context.Context, text string) error {
	return t.conn.Write(ctx, websocket.MessageText, []byte(text))
}

func (t *wsTransport) Close(reason string) error {
	return t.conn.Close(websocket.StatusNormalClosure, reason)
}

// originPatterns converts configured origins into host patterns accepted by
// the WebSocket library, which matches on host rather than full URL.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		if o != "" {
			patterns = append(patterns, o)
		}
	}
	return patterns
}

// handleChat handles GET /chat/{client_id}/{config_id}/{chat_id} WebSocket
// upgrades. Each accepted connection runs one Session until the peer
// disconnects.
func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/chat"), "/"), "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		g.sendJSONError(w, http.StatusBadRequest, "expected /chat/{client_id}/{config_id}/{chat_id}")
		return
	}
	clientID, configID, chatID := parts[0], parts[1], parts[2]

	opts := &websocket.AcceptOptions{}
	if len(g.config.CORS.AllowedOrigins) == 0 {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = originPatterns(g.config.CORS.AllowedOrigins)
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		g.logger.Warn("websocket accept failed", "error", err)
		return
	}

	session := NewSession(clientID, configID, chatID, g.store, g.conversation, g.metrics, g.logger)
	if err := session.Run(r.Context(), &wsTransport{conn: conn}); err != nil {
		g.logger.Debug("session transport error", "error", err)
	}
	_ = conn.CloseNow()
}
