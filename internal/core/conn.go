package core

// Frame is one encoded signaling message.
type Frame []byte

// SignalConnection abstracts the messaging transport for one client.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	IsOpen() bool
	Close()
}
