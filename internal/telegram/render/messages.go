// Package render holds the texts the bot sends to users.
package render

import (
	"errors"
	"strings"
	"unicode/utf16"

	"github.com/futig/joke-flows/internal/entity"
)

const (
	MsgWelcome = "Hi! Send me any topic and I will make a joke about it.\n\nUse /help to see what else I can do."
	MsgHelp    = `Commands:
/start - greeting
/help - this message
/flows - list available joke flows
/flow <name> - switch the flow used for your messages

Anything else you send is treated as the joke topic.`

	MsgFlowSwitched = "Now using flow: "
	MsgEmptyTopic   = "Send me a topic, for example: cats."
	MsgUnknownCmd   = "Unknown command. Use /help."

	MsgSlowDown     = "Too many requests. Please wait a little."
	MsgSlowDownHard = "You are sending messages too often. Please wait a minute."

	ErrGeneric         = "Something went wrong. Please try again."
	ErrUnknownFlow     = "There is no such flow. Use /flows to see the list."
	ErrNoKnowledge     = "I have not read anything about jokes yet. Ask the admin to ingest some documents."
	ErrJokeUnavailable = "The joke machine is having a moment. Please try again later."
)

// Flows formats the flow list, marking the one in use
func Flows(names []string, current string) string {
	var b strings.Builder
	b.WriteString("Available flows:\n")
	for _, n := range names {
		if n == current {
			b.WriteString("* " + n + " (current)\n")
			continue
		}
		b.WriteString("* " + n + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FlowError turns a flow failure into a reply that does not leak internals
func FlowError(err error) string {
	switch entity.KindOf(err) {
	case entity.KindValidation:
		return MsgEmptyTopic
	case entity.KindNotFound:
		return ErrUnknownFlow
	case entity.KindTool, entity.KindGeneration:
		return ErrJokeUnavailable
	case entity.KindRetrieval:
		if errors.Is(err, entity.ErrIndexNotFound) {
			return ErrNoKnowledge
		}
	}
	return ErrGeneric
}

// MaxMessageLength is the Telegram limit for a single text message, in UTF-16 code units
const MaxMessageLength = 4096

// Length measures text the way Telegram does, in UTF-16 code units
func Length(text string) int {
	return len(utf16.Encode([]rune(text)))
}

// Split breaks text into messages Telegram accepts, preferring line breaks
func Split(text string) []string {
	runes := []rune(text)
	var parts []string
	for Length(string(runes)) > MaxMessageLength {
		cut, units, lineBreak := 0, 0, 0
		for cut < len(runes) {
			n := utf16.RuneLen(runes[cut])
			if units+n > MaxMessageLength {
				break
			}
			units += n
			cut++
			if runes[cut-1] == '\n' && units > MaxMessageLength/2 {
				lineBreak = cut
			}
		}
		if lineBreak > 0 {
			cut = lineBreak
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	return append(parts, string(runes))
}
