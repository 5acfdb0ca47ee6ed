package web

import (
	"net/http"
	"strings"
)

const indexHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Neural Network Visualizer</title></head>
<body>
<h1>Neural Network Visualizer</h1>
<img id="canvas" src="/canvas.png" alt="network">
<p>
<button id="train">Train Network</button>
<button id="reset">Reset</button>
<span id="status"></span>
</p>
<script>
const img = document.getElementById("canvas");
const status = document.getElementById("status");
const buttons = [document.getElementById("train"), document.getElementById("reset")];
function post(path) { fetch(path, {method: "POST"}).catch(e => console.error(path, e)); }
buttons[0].onclick = () => post("/api/train");
buttons[1].onclick = () => post("/api/reset");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = ev => {
  const u = JSON.parse(ev.data);
  img.src = "/canvas.png?v=" + u.version;
  buttons.forEach(b => b.disabled = u.training);
  status.textContent = u.training ? "training..." : "";
};
</script>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(strings.TrimSpace(indexHTML)))
}
