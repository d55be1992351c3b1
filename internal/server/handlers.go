// Package server exposes HTTP handlers, including the WebSocket upgrade,
// health check, and the built-in chat page.
package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketHandler returns the handler for WebSocket upgrade requests. It
// validates that the request uses the GET method, enforces the origin
// allow-list, upgrades the connection, and registers the new client with
// the hub, which launches the read/write pumps.
func WebSocketHandler(hub *Hub) http.HandlerFunc {
	origins := newOriginPolicy(hub.cfg.AllowedOrigins, hub.log)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     origins.check,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Warn().Err(err).Str("addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr)
		hub.register <- client
	}
}

// HealthHandler provides a simple health check endpoint that returns server
// status as plain text.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "ChatFlow server is running!")
}

// IndexHandler serves the built-in chat page: a minimal client that joins
// with a username, shows the roster and messages, and sends typing notices.
func IndexHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, indexHTML); err != nil {
		return
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>ChatFlow</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; display: flex; gap: 20px; }
        #main { flex: 1; }
        #messages {
            border: 1px solid #ccc;
            height: 320px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        #users { border: 1px solid #ccc; padding: 10px; width: 180px; }
        #typing { color: gray; font-style: italic; min-height: 1.2em; }
        .system { color: gray; font-style: italic; }
        .error { color: #721c24; }
        input[type="text"] { width: 280px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
    </style>
</head>
<body>
    <div id="main">
        <h1>ChatFlow</h1>
        <div id="joinForm">
            <input type="text" id="usernameInput" placeholder="Pick a username...">
            <button onclick="join()">Join</button>
        </div>
        <div id="messages"></div>
        <div id="typing"></div>
        <div>
            <input type="text" id="messageInput" placeholder="Type a message..." disabled>
            <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
        </div>
    </div>
    <div id="users"><strong>Online</strong><ul id="usersUl"></ul></div>

    <script>
        let ws = null;
        let username = null;
        let typingTimer = null;
        const messagesDiv = document.getElementById('messages');

        function send(event, data) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({event: event, data: data}));
            }
        }

        function addLine(text, cls) {
            const el = document.createElement('div');
            if (cls) el.className = cls;
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function renderUsers(users) {
            const ul = document.getElementById('usersUl');
            ul.innerHTML = '';
            (users || []).forEach(function(u) {
                const li = document.createElement('li');
                li.textContent = u.username;
                ul.appendChild(li);
            });
        }

        function handle(msg) {
            const d = msg.data;
            switch (msg.event) {
            case 'messageHistory':
                (d || []).forEach(function(m) {
                    addLine(m.type === 'system' ? m.message : m.username + ': ' + m.message,
                            m.type === 'system' ? 'system' : '');
                });
                break;
            case 'userJoined':
                addLine(d.username + ' joined the chat', 'system');
                renderUsers(d.users);
                break;
            case 'usersList':
                renderUsers(d);
                break;
            case 'newMessage':
                addLine(d.username + ': ' + d.message);
                break;
            case 'userTyping':
                document.getElementById('typing').textContent = d.username + ' is typing...';
                break;
            case 'userStoppedTyping':
                document.getElementById('typing').textContent = '';
                break;
            case 'userLeft':
                addLine(d.username + ' left the chat', 'system');
                renderUsers(d.users);
                break;
            case 'error':
                addLine('Error: ' + d.message, 'error');
                break;
            }
        }

        function join() {
            const name = document.getElementById('usernameInput').value.trim();
            if (!name) return;
            const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(proto + location.host + '/ws');
            ws.onopen = function() {
                username = name;
                send('join', name);
                document.getElementById('messageInput').disabled = false;
                document.getElementById('sendButton').disabled = false;
            };
            ws.onmessage = function(evt) {
                evt.data.split('\n').forEach(function(line) {
                    if (line) handle(JSON.parse(line));
                });
            };
            ws.onclose = function() {
                addLine('Connection closed', 'system');
            };
        }

        function sendMessage() {
            const input = document.getElementById('messageInput');
            const text = input.value.trim();
            if (!text) return;
            send('newMessage', {username: username, message: text});
            send('stopTyping', {username: username});
            input.value = '';
        }

        document.getElementById('messageInput').addEventListener('input', function() {
            send('typing', {username: username});
            clearTimeout(typingTimer);
            typingTimer = setTimeout(function() {
                send('stopTyping', {username: username});
            }, 2000);
        });

        document.getElementById('messageInput').addEventListener('keypress', function(e) {
            if (e.key === 'Enter') sendMessage();
        });

        window.addEventListener('beforeunload', function() {
            if (username) send('leaveChat', {username: username});
        });
    </script>
</body>
</html>`
