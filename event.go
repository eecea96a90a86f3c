package greenmq

import (
	"time"
)

const (
	TransportErrorEvent = 500
	SocketClosedEvent   = 100
)

type Event struct {
	Id        string                 `json:"id"`
	Timestamp int64                  `json:"timestamp"`
	Type      int                    `json:"type"`
	MetaData  map[string]interface{} `json:"metaData"`
	Tags      []string               `json:"tags"`
	Err       error                  `json:"error"`
	Msg       string                 `json:"msg"`
}

func genSocketErrorEvent(id string, eventType int, err error) Event {
	return Event{
		Id:        id,
		Timestamp: time.Now().UnixMilli(),
		Type:      eventType,
		Err:       err,
		Msg:       "transport operation failed",
	}
}

func genSocketClosedEvent(id string) Event {
	return Event{
		Id:        id,
		Timestamp: time.Now().UnixMilli(),
		Type:      SocketClosedEvent,
		Msg:       "socket closed",
	}
}
