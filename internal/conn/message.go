package conn

// Message is one item travelling through a connection channel: either a
// payload or the Stop sentinel. The zero value is an empty payload, not Stop.
type Message struct {
	data []byte
	stop bool
}

// Stop tells the receiving loop that nothing follows and it must exit
var Stop = Message{stop: true}

// Data wraps a payload
func Data(payload []byte) Message {
	return Message{data: payload}
}

// Text wraps a string payload
func Text(payload string) Message {
	return Message{data: []byte(payload)}
}

// IsStop reports whether m is the Stop sentinel
func (m Message) IsStop() bool {
	return m.stop
}

// Payload returns the message bytes; nil for Stop
func (m Message) Payload() []byte {
	return m.data
}
