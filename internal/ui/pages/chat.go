// Package pages holds the server rendered pages.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/templui/goalcoach/internal/model"
)

// Chat is the single page chat client. It posts to /api/chat and offers the
// export of a created goal as a download.
func Chat(appName string, templates []*model.GoalTemplate) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		name := templ.EscapeString(appName)
		_, err := fmt.Fprintf(w, chatHead, name)
		if err != nil {
			return err
		}

		_, err = io.WriteString(w, `<aside><h2>Start from a template</h2><ul>`)
		if err != nil {
			return err
		}
		for _, t := range templates {
			_, err = fmt.Fprintf(w, `<li><button type="button" class="template" data-prompt="%s">%s</button><small>%s</small></li>`,
				templ.EscapeString(t.Title), templ.EscapeString(t.Name), templ.EscapeString(t.Description))
			if err != nil {
				return err
			}
		}
		_, err = io.WriteString(w, `</ul></aside>`)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(w, chatBody, templ.EscapeString(templ.GetNonce(ctx)), chatScript)
		return err
	})
}

// NotFound is shown for unknown pages.
func NotFound() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8"><title>Not found</title></head>`+
			`<body><main><h1>Page not found</h1><p><a href="/">Back to the chat</a></p></main></body></html>`)
		return err
	})
}

const chatHead = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%[1]s</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;display:grid;grid-template-columns:16rem 1fr;min-height:100vh}
aside{background:#f5f5f4;padding:1rem;border-right:1px solid #e7e5e4}
aside ul{list-style:none;padding:0}aside li{margin-bottom:.75rem}aside small{display:block;color:#57534e}
main{display:flex;flex-direction:column;padding:1rem;max-width:48rem}
#log{flex:1;overflow-y:auto}
.msg{margin:.5rem 0;padding:.75rem;border-radius:.5rem}.user{background:#e0f2fe}.assistant{background:#f5f5f4}
.steps{color:#57534e;font-size:.9rem}
form{display:flex;gap:.5rem;margin-top:1rem}textarea{flex:1;min-height:3rem}
</style>
</head>
<body>
`

const chatBody = `<main>
<h1>Goal coach</h1>
<div id="log" aria-live="polite"></div>
<form id="chat">
<textarea name="message" placeholder="Describe a goal, e.g. I want to run a 5k in 10 weeks because I want more energy" required></textarea>
<input type="file" name="attachments" accept="image/png,image/jpeg,image/gif,image/webp" multiple>
<button type="submit">Send</button>
</form>
</main>
<script nonce="%s">%s</script>
</body>
</html>
`

const chatScript = `
const log = document.getElementById("log");
const form = document.getElementById("chat");
const threadId = sessionStorage.getItem("threadId") || crypto.randomUUID();
sessionStorage.setItem("threadId", threadId);

function add(role, html) {
  const div = document.createElement("div");
  div.className = "msg " + role;
  div.innerHTML = html;
  log.appendChild(div);
  log.scrollTop = log.scrollHeight;
  return div;
}

function text(s) {
  const span = document.createElement("span");
  span.textContent = s;
  return span.innerHTML;
}

function readFile(file) {
  return new Promise((resolve, reject) => {
    const reader = new FileReader();
    reader.onload = () => resolve({name: file.name, mimeType: file.type, data: reader.result});
    reader.onerror = reject;
    reader.readAsDataURL(file);
  });
}

form.addEventListener("submit", async (e) => {
  e.preventDefault();
  const message = form.message.value.trim();
  if (!message) return;
  const attachments = await Promise.all([...form.attachments.files].map(readFile));
  add("user", text(message));
  form.reset();

  const res = await fetch("/api/chat", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({message, threadId, attachments}),
  });
  const body = await res.json();
  if (!res.ok) {
    add("assistant", text(body.error + (body.hint ? " " + body.hint : "")));
    return;
  }

  const div = add("assistant", body.replyHtml || text(body.reply));
  if (body.nextSteps && body.nextSteps.length) {
    const ul = document.createElement("ul");
    ul.className = "steps";
    body.nextSteps.forEach((s) => { const li = document.createElement("li"); li.textContent = s; ul.appendChild(li); });
    div.appendChild(ul);
  }
  if (body.exportContent) {
    const a = document.createElement("a");
    a.href = URL.createObjectURL(new Blob([body.exportContent], {type: body.exportMimeType}));
    a.download = body.exportFilename;
    a.textContent = "Download " + body.exportFilename;
    div.appendChild(a);
  }
});

document.querySelectorAll("button.template").forEach((b) => {
  b.addEventListener("click", () => { form.message.value = "I want to " + b.dataset.prompt.toLowerCase(); form.message.focus(); });
});
`
