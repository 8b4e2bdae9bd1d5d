// Package telegram implements the Telegram bot interface: routing of
// updates to handlers and the bot lifecycle.
package telegram

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/sinovhub/sinov-test-bot/internal/application/session"
	"github.com/sinovhub/sinov-test-bot/internal/domain/identity"
	"github.com/sinovhub/sinov-test-bot/internal/infrastructure/external/telegram"
	"github.com/sinovhub/sinov-test-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables debug logging for routing decisions.
	Debug bool
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT TYPES
// These types carry request information through the routing process.
// ══════════════════════════════════════════════════════════════════════════════

// CommandContext contains context for command handling.
type CommandContext struct {
	// TelegramID is the sender's Telegram ID.
	TelegramID int64

	// ChatID is the chat the command was sent in.
	ChatID int64

	// MessageID is the ID of the message containing the command.
	MessageID int64

	// Args is the text after the command.
	Args string

	// User is the registered sender.
	User *identity.User

	// Message is the original Telegram message.
	Message *telegram.Message
}

// CallbackContext contains context for callback query handling.
type CallbackContext struct {
	// TelegramID is the sender's Telegram ID.
	TelegramID int64

	// ChatID is the chat with the inline keyboard, 0 for inline messages.
	ChatID int64

	// MessageID is the message carrying the keyboard.
	MessageID int64

	// QueryID is the callback query ID (for answering).
	QueryID string

	// Data is the callback data string.
	Data string

	// User is the registered sender.
	User *identity.User
}

// TextContext contains context for free-text handling within a flow.
type TextContext struct {
	// TelegramID is the sender's Telegram ID.
	TelegramID int64

	// ChatID is the chat the text was sent in.
	ChatID int64

	// Text is the message text.
	Text string

	// User is the registered sender.
	User *identity.User

	// Session is the sender's current dialog session.
	Session *session.Session
}

// Handler function types.
type (
	CommandFunc  func(ctx context.Context, cmdCtx CommandContext) error
	CallbackFunc func(ctx context.Context, cbCtx CallbackContext) error
	TextFunc     func(ctx context.Context, txtCtx TextContext) error
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Routes incoming updates to registered handlers: commands by name,
// callbacks by longest matching prefix, free text by session state.
// ══════════════════════════════════════════════════════════════════════════════

// Router routes Telegram updates.
type Router struct {
	config RouterConfig
	logger *slog.Logger

	commandHandlers   map[string]CommandFunc
	commandHandlersMu sync.RWMutex

	callbackPrefixHandlers   map[string]CallbackFunc
	callbackPrefixHandlersMu sync.RWMutex

	textHandlers   map[session.State]TextFunc
	textHandlersMu sync.RWMutex

	defaultCommandHandler  CommandFunc
	defaultCallbackHandler CallbackFunc
	defaultTextHandler     TextFunc
}

// NewRouter creates a new router.
func NewRouter(config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Router{
		config:                 config,
		logger:                 config.Logger,
		commandHandlers:        make(map[string]CommandFunc),
		callbackPrefixHandlers: make(map[string]CallbackFunc),
		textHandlers:           make(map[session.State]TextFunc),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// RegisterCommand registers a handler for a command (without the "/").
func (r *Router) RegisterCommand(command string, fn CommandFunc) {
	r.commandHandlersMu.Lock()
	defer r.commandHandlersMu.Unlock()

	r.commandHandlers[command] = fn

	if r.config.Debug {
		r.logger.Debug("registered command handler", "command", command)
	}
}

// RegisterCallbackPrefix registers a handler for callbacks matching a
// prefix, including the trailing delimiter (e.g. "stats:").
func (r *Router) RegisterCallbackPrefix(prefix string, fn CallbackFunc) {
	r.callbackPrefixHandlersMu.Lock()
	defer r.callbackPrefixHandlersMu.Unlock()

	r.callbackPrefixHandlers[prefix] = fn

	if r.config.Debug {
		r.logger.Debug("registered callback prefix handler", "prefix", prefix)
	}
}

// RegisterTextState registers a handler for free text in a session state.
func (r *Router) RegisterTextState(state session.State, fn TextFunc) {
	r.textHandlersMu.Lock()
	defer r.textHandlersMu.Unlock()

	r.textHandlers[state] = fn
}

// SetDefaultCommandHandler sets the handler for unknown commands.
func (r *Router) SetDefaultCommandHandler(fn CommandFunc) {
	r.defaultCommandHandler = fn
}

// SetDefaultCallbackHandler sets the handler for unknown callbacks.
func (r *Router) SetDefaultCallbackHandler(fn CallbackFunc) {
	r.defaultCallbackHandler = fn
}

// SetDefaultTextHandler sets the handler for text outside any flow.
func (r *Router) SetDefaultTextHandler(fn TextFunc) {
	r.defaultTextHandler = fn
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

// HandleCommand routes a command to its handler.
func (r *Router) HandleCommand(ctx context.Context, command string, cmdCtx CommandContext) error {
	r.commandHandlersMu.RLock()
	fn, ok := r.commandHandlers[command]
	r.commandHandlersMu.RUnlock()

	if !ok {
		if r.config.Debug {
			r.logger.Debug("no handler for command", "command", command)
		}
		if r.defaultCommandHandler != nil {
			return r.defaultCommandHandler(ctx, cmdCtx)
		}
		return nil
	}

	return fn(ctx, cmdCtx)
}

// HandleCallback routes a callback to the longest matching prefix handler.
func (r *Router) HandleCallback(ctx context.Context, data string, cbCtx CallbackContext) error {
	r.callbackPrefixHandlersMu.RLock()
	var matchedPrefix string
	var matched CallbackFunc
	for prefix, fn := range r.callbackPrefixHandlers {
		if strings.HasPrefix(data, prefix) && len(prefix) > len(matchedPrefix) {
			matchedPrefix = prefix
			matched = fn
		}
	}
	r.callbackPrefixHandlersMu.RUnlock()

	if matched == nil {
		r.logger.Warn("unknown callback", "data", data)
		if r.defaultCallbackHandler != nil {
			return r.defaultCallbackHandler(ctx, cbCtx)
		}
		return nil
	}

	return matched(ctx, cbCtx)
}

// HandleText routes free text by the session state.
func (r *Router) HandleText(ctx context.Context, txtCtx TextContext) error {
	state := session.StateIdle
	if txtCtx.Session != nil {
		state = txtCtx.Session.State
	}

	r.textHandlersMu.RLock()
	fn, ok := r.textHandlers[state]
	r.textHandlersMu.RUnlock()

	if !ok {
		if r.defaultTextHandler != nil {
			return r.defaultTextHandler(ctx, txtCtx)
		}
		return nil
	}

	return fn(ctx, txtCtx)
}

// ══════════════════════════════════════════════════════════════════════════════
// KEYBOARD CONVERSION
// Presenter keyboards are library-agnostic; these helpers convert them
// to the client's wire format.
// ══════════════════════════════════════════════════════════════════════════════

// convertKeyboard converts presenter.InlineKeyboard to the wire markup.
func convertKeyboard(kb *presenter.InlineKeyboard) *telegram.InlineKeyboardMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: make([][]telegram.InlineKeyboardButton, len(kb.Rows)),
	}
	for i, row := range kb.Rows {
		markup.InlineKeyboard[i] = make([]telegram.InlineKeyboardButton, len(row))
		for j, btn := range row {
			markup.InlineKeyboard[i][j] = telegram.InlineKeyboardButton{
				Text:              btn.Text,
				CallbackData:      btn.CallbackData,
				URL:               btn.URL,
				SwitchInlineQuery: btn.SwitchInlineQuery,
			}
		}
	}
	return markup
}

// convertMenu converts presenter.ReplyMenu to the wire markup.
func convertMenu(menu *presenter.ReplyMenu) *telegram.ReplyKeyboardMarkup {
	if menu == nil || len(menu.Rows) == 0 {
		return nil
	}

	markup := &telegram.ReplyKeyboardMarkup{
		Keyboard:       make([][]telegram.KeyboardButton, len(menu.Rows)),
		ResizeKeyboard: true,
		IsPersistent:   true,
	}
	for i, row := range menu.Rows {
		markup.Keyboard[i] = make([]telegram.KeyboardButton, len(row))
		for j, label := range row {
			markup.Keyboard[i][j] = telegram.KeyboardButton{Text: label}
		}
	}
	return markup
}
