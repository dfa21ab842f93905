package core

// HTTPEventKind enumerates the lifecycle events of one HTTP exchange.
type HTTPEventKind int

const (
	HTTPConnected HTTPEventKind = iota + 1
	HTTPHeaderSent
	HTTPHeaderReceived
	HTTPData
	HTTPFinish
	HTTPDisconnected
	HTTPError
	HTTPRedirect
)

var httpEventNames = map[HTTPEventKind]string{
	HTTPConnected:      "Connected",
	HTTPHeaderSent:     "HeaderSent",
	HTTPHeaderReceived: "HeaderReceived",
	HTTPData:           "Data",
	HTTPFinish:         "Finish",
	HTTPDisconnected:   "Disconnected",
	HTTPError:          "Error",
	HTTPRedirect:       "Redirect",
}

func (k HTTPEventKind) String() string {
	if s, ok := httpEventNames[k]; ok {
		return s
	}
	return "Unknown"
}

// HTTPEvent is one step of an exchange as seen by the response sink.
type HTTPEvent struct {
	Kind HTTPEventKind

	// HeaderKey and HeaderValue are set for HTTPHeaderReceived.
	HeaderKey   string
	HeaderValue string

	// Data is the fragment for HTTPData. It is only valid during the call.
	Data []byte

	// StatusCode is set from HTTPHeaderReceived onwards.
	StatusCode int

	// Err is set for HTTPError.
	Err error
}

// HTTPEventSink consumes exchange events in order.
type HTTPEventSink interface {
	Handle(ev *HTTPEvent) error
}
