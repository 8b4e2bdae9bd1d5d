// Package handler contains Telegram command and flow handlers.
// Each handler follows the pattern: receive input → call the application
// layer → format a response via presenters. Sending is the router's job.
package handler

import (
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/presenter"
)

// Response is what a handler wants sent back to the chat.
type Response struct {
	// Text is the message text, HTML formatted.
	Text string

	// Keyboard is an optional inline keyboard.
	Keyboard *presenter.InlineKeyboard

	// Menu is an optional persistent reply keyboard.
	// At most one of Keyboard and Menu may be set.
	Menu *presenter.ReplyMenu

	// ParseMode is the Telegram parse mode, HTML by default.
	ParseMode string
}

// HTML builds a plain HTML response.
func HTML(text string) *Response {
	return &Response{Text: text, ParseMode: "HTML"}
}

// WithKeyboard attaches an inline keyboard.
func (r *Response) WithKeyboard(kb *presenter.InlineKeyboard) *Response {
	r.Keyboard = kb
	return r
}

// WithMenu attaches a reply keyboard.
func (r *Response) WithMenu(menu *presenter.ReplyMenu) *Response {
	r.Menu = menu
	return r
}
