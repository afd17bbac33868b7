// Package ui declares the replies a bot gives when an update matches no route.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers for text that is neither a command nor
// understood input, and for callbacks that do not decode.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
