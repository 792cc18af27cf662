package telegram

import (
	"encoding/json"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// The bot library predates Mini Apps, so the web_app keyboard and menu button
// are encoded here and passed through as raw markup.

type webAppInfo struct {
	URL string `json:"url"`
}

type webAppButton struct {
	Text   string     `json:"text"`
	WebApp webAppInfo `json:"web_app"`
}

type webAppKeyboard struct {
	InlineKeyboard [][]webAppButton `json:"inline_keyboard"`
}

type menuButton struct {
	Type   string     `json:"type"`
	Text   string     `json:"text"`
	WebApp webAppInfo `json:"web_app"`
}

const (
	portalButtonText = "Open Partner Portal"
	helpText         = "Use /portal to open the AddMy partner portal. " +
		"There you can buy credits, track payments and renew your users' memberships."
)

// Launcher answers bot commands with a button that opens the portal as a
// Telegram Mini App.
type Launcher struct {
	loginURL string
}

func NewLauncher(webAppURL string) *Launcher {
	return &Launcher{loginURL: strings.TrimSuffix(webAppURL, "/") + "/partner/login"}
}

// Reply builds the answer to msg, or returns false when msg needs none.
func (l *Launcher) Reply(msg *tgbotapi.Message) (tgbotapi.MessageConfig, bool) {
	if msg == nil || msg.Chat == nil {
		return tgbotapi.MessageConfig{}, false
	}

	switch msg.Command() {
	case "start", "portal":
		name := "partner"
		if msg.From != nil && msg.From.FirstName != "" {
			name = msg.From.FirstName
		}
		reply := tgbotapi.NewMessage(msg.Chat.ID,
			"Hi "+name+"! Tap the button below to open your partner dashboard.")
		reply.ReplyMarkup = l.keyboard()
		return reply, true
	default:
		if msg.Chat.IsPrivate() {
			return tgbotapi.NewMessage(msg.Chat.ID, helpText), true
		}
	}
	return tgbotapi.MessageConfig{}, false
}

func (l *Launcher) keyboard() webAppKeyboard {
	return webAppKeyboard{InlineKeyboard: [][]webAppButton{{
		{Text: portalButtonText, WebApp: webAppInfo{URL: l.loginURL}},
	}}}
}

// MenuButtonParams are the setChatMenuButton parameters that make the chat
// menu button open the portal.
func (l *Launcher) MenuButtonParams() (tgbotapi.Params, error) {
	raw, err := json.Marshal(menuButton{Type: "web_app", Text: "Portal", WebApp: webAppInfo{URL: l.loginURL}})
	if err != nil {
		return nil, err
	}
	return tgbotapi.Params{"menu_button": string(raw)}, nil
}
