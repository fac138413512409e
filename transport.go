package rapport

// Transport is the normalized socket a Socket sends and receives through.
// Registering a handler replaces the previously registered one.
type Transport interface {
	OnOpen(handler func())
	OnError(handler func(err error))
	OnClose(handler func(code int, reason []byte))
	OnMessage(handler func(data []byte))
	// Send transmits data, failing if the connection can't accept writes.
	Send(data []byte) error
	// Close starts the close handshake with the given code and encoded message.
	Close(code int, reason []byte) error
}

// Runner is implemented by transports that deliver events from a read loop
// the caller must drive. Run returns when the connection has closed.
type Runner interface {
	Run() error
}

// StatsCollector is the interface required to collect statistics
type StatsCollector interface {
	AddBytesWritten(int64)
	AddBytesRead(int64)
}
