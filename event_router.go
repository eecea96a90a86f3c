package greenmq

import (
	"github.com/rs/zerolog/log"
)

// EventRouter receives socket lifecycle and error events. Routing is
// best-effort: a failing router never affects the socket operation that
// produced the event.
type EventRouter interface {
	Process(key string, event *Event) error
}

var eventRouter EventRouter

func routeEvent(key string, event Event) {
	if eventRouter == nil {
		return
	}
	err := eventRouter.Process(key, &event)
	if err != nil {
		log.Error().Msgf("got error while routing event: %+v", err)
	}
}
