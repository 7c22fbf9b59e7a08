// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// fallbackChatPage 是内置的默认聊天页面。
// 它不依赖任何外部模板或静态资源，保证渲染基础设施部分损坏时
// 服务仍能给出一个可用的界面。
const fallbackChatPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>GenAI Chat</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
       margin: 0; background: #f5f5f5; min-height: 100vh; }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
          color: white; padding: 1rem; text-align: center; }
.container { max-width: 720px; margin: 0 auto; padding: 2rem; }
.panel { background: white; padding: 2rem; border-radius: 10px; }
#history { min-height: 200px; margin-bottom: 1rem; white-space: pre-wrap; }
#message { width: 80%; padding: 0.5rem; }
button { padding: 0.5rem 1rem; background: #667eea; color: white; border: none; border-radius: 5px; }
</style>
</head>
<body>
<div class="header"><h1>GenAI Chat</h1></div>
<div class="container"><div class="panel">
<div id="history"></div>
<input id="message" placeholder="Say something...">
<button onclick="send()">Send</button>
</div></div>
<script>
let conversationId = null;
async function send() {
  const input = document.getElementById('message');
  const text = input.value.trim();
  if (!text) return;
  input.value = '';
  append('you', text);
  const resp = await fetch('/api/v1/chat/send', {
    method: 'POST',
    headers: {'Content-Type': 'application/json',
              'Authorization': 'Bearer ' + (localStorage.getItem('token') || '')},
    body: JSON.stringify({conversation_id: conversationId, message: text})
  });
  const body = await resp.json();
  if (resp.ok) {
    conversationId = body.data.conversationId;
    append('assistant', body.data.assistantMessage.content);
  } else {
    append('error', body.message || resp.statusText);
  }
}
function append(who, text) {
  document.getElementById('history').textContent += who + ': ' + text + '\n';
}
</script>
</body>
</html>`

// HomeHandler 提供内置的聊天页面。
type HomeHandler struct{}

// NewHomeHandler 创建一个新的 HomeHandler 实例。
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// Home 渲染内置的默认聊天页面。
func (h *HomeHandler) Home(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fallbackChatPage))
}
