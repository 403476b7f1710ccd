package handler

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/xxxsen/ai360/internal/model"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

type messageView struct {
	Role    model.Role `json:"role"`
	Class   string     `json:"class"`
	Message string     `json:"message"`
	HTML    string     `json:"html,omitempty"`
	Ctime   int64      `json:"ctime"`
}

func renderMessages(msgs []model.ChatMessage) []messageView {
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		v := messageView{Role: m.Role, Class: "chat-user", Message: m.Text, Ctime: m.Ctime}
		if m.Role == model.RoleBot {
			v.Class = "chat-bot"
			v.HTML = renderMarkdown(m.Text)
		}
		out = append(out, v)
	}
	return out
}

// renderMarkdown omits raw HTML in model output since WithUnsafe is not set.
func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return ""
	}
	return buf.String()
}
