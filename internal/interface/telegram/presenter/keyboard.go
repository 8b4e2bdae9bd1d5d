// Package presenter formats data for Telegram display.
// Presenters convert domain objects into user-facing messages and
// keyboards in a library-agnostic way; the router converts the results
// to the wire format of the Telegram client.
package presenter

import (
	"fmt"

	"github.com/sinovhub/sinov-test-bot/internal/domain/channel"
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYBOARD TYPES
// ══════════════════════════════════════════════════════════════════════════════

// InlineKeyboard represents an inline keyboard attached to a message.
type InlineKeyboard struct {
	Rows [][]InlineButton
}

// InlineButton represents a single inline button.
type InlineButton struct {
	// Text is the button label.
	Text string

	// CallbackData is the callback data (for callback buttons).
	CallbackData string

	// URL is the URL to open (for URL buttons).
	URL string

	// SwitchInlineQuery starts inline mode in another chat (for share buttons).
	SwitchInlineQuery string
}

// NewInlineKeyboard creates a new empty inline keyboard.
func NewInlineKeyboard() *InlineKeyboard {
	return &InlineKeyboard{Rows: make([][]InlineButton, 0)}
}

// AddRow adds a row of buttons.
func (k *InlineKeyboard) AddRow(buttons ...InlineButton) *InlineKeyboard {
	k.Rows = append(k.Rows, buttons)
	return k
}

// CallbackButton creates a callback button.
func CallbackButton(text, callbackData string) InlineButton {
	return InlineButton{Text: text, CallbackData: callbackData}
}

// URLButton creates a URL button.
func URLButton(text, url string) InlineButton {
	return InlineButton{Text: text, URL: url}
}

// ShareButton creates a button that opens inline mode with a prefilled query.
func ShareButton(text, query string) InlineButton {
	return InlineButton{Text: text, SwitchInlineQuery: query}
}

// ReplyMenu represents a persistent reply keyboard (the main menu).
type ReplyMenu struct {
	Rows [][]string
}

// ══════════════════════════════════════════════════════════════════════════════
// MENU BUTTON LABELS
// The reply keyboard sends these labels back as plain text, so the bot
// maps them to commands by exact match.
// ══════════════════════════════════════════════════════════════════════════════

const (
	MenuCreate    = "📝 Test yaratish"
	MenuSolve     = "✍️ Test yechish"
	MenuStats     = "📊 Test natijalari"
	MenuEnd       = "🏁 Testni yakunlash"
	MenuMyTests   = "📋 Mening testlarim"
	MenuMyResults = "🎯 Mening natijalarim"
	MenuHelp      = "ℹ️ Yordam"
	MenuAdmin     = "🛠 Admin panel"
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYBOARD BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// KeyboardBuilder builds keyboards for the bot's flows.
type KeyboardBuilder struct{}

// NewKeyboardBuilder creates a new KeyboardBuilder.
func NewKeyboardBuilder() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

// MainMenu builds the persistent reply keyboard. Admins get an extra row.
func (b *KeyboardBuilder) MainMenu(isAdmin bool) *ReplyMenu {
	rows := [][]string{
		{MenuCreate, MenuSolve},
		{MenuStats, MenuEnd},
		{MenuMyTests, MenuMyResults},
		{MenuHelp},
	}
	if isAdmin {
		rows = append(rows, []string{MenuAdmin})
	}
	return &ReplyMenu{Rows: rows}
}

// JoinChannelsKeyboard builds the keyboard shown to users who have not
// joined all mandatory channels: one URL button per channel plus a
// re-check button.
func (b *KeyboardBuilder) JoinChannelsKeyboard(channels []*channel.Channel) *InlineKeyboard {
	kb := NewInlineKeyboard()
	for _, ch := range channels {
		title := ch.Title
		if title == "" {
			title = ch.Username
		}
		kb.AddRow(URLButton("📢 "+title, ch.InviteURL()))
	}
	kb.AddRow(CallbackButton("✅ A'zo bo'ldim", "checkmembership"))
	return kb
}

// TestCreatedKeyboard builds the keyboard under the "test created" message.
func (b *KeyboardBuilder) TestCreatedKeyboard(code string) *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(ShareButton("📤 Ulashish", code)).
		AddRow(
			CallbackButton("📊 Natijalar", "stats:"+code),
			CallbackButton("🏁 Yakunlash", "end:"+code),
		)
}

// StatsKeyboard builds the keyboard under a statistics message.
func (b *KeyboardBuilder) StatsKeyboard(code string, isActive bool) *InlineKeyboard {
	kb := NewInlineKeyboard().
		AddRow(CallbackButton("🔄 Yangilash", "stats:"+code))
	if isActive {
		kb.AddRow(CallbackButton("🏁 Yakunlash", "end:"+code))
	}
	return kb
}

// SolveKeyboard builds the keyboard under an inline-shared test invitation.
func (b *KeyboardBuilder) SolveKeyboard(botUsername, code string) *InlineKeyboard {
	url := fmt.Sprintf("https://t.me/%s?start=%s", botUsername, code)
	return NewInlineKeyboard().
		AddRow(URLButton("✍️ Testni yechish", url))
}

// CancelKeyboard builds a single cancel button for multi-step flows.
func (b *KeyboardBuilder) CancelKeyboard() *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(CallbackButton("❌ Bekor qilish", "cancel"))
}

// AdminPanelKeyboard builds the admin panel keyboard.
func (b *KeyboardBuilder) AdminPanelKeyboard() *InlineKeyboard {
	return NewInlineKeyboard().
		AddRow(
			CallbackButton("➕ Kanal qo'shish", "admin:addchannel"),
			CallbackButton("📢 Kanallar", "admin:channels"),
		).
		AddRow(
			CallbackButton("👤 Admin tayinlash", "admin:grantadmin"),
			CallbackButton("📣 Xabar yuborish", "admin:broadcast"),
		)
}

// ChannelListKeyboard builds a removal keyboard: one button per channel.
func (b *KeyboardBuilder) ChannelListKeyboard(channels []*channel.Channel) *InlineKeyboard {
	kb := NewInlineKeyboard()
	for _, ch := range channels {
		title := ch.Title
		if title == "" {
			title = ch.Username
		}
		kb.AddRow(CallbackButton(
			"🗑 "+title,
			fmt.Sprintf("admin:delchannel:%d", int64(ch.ChatID)),
		))
	}
	kb.AddRow(CallbackButton("◀️ Orqaga", "admin:panel"))
	return kb
}
