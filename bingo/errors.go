// bingo/errors.go
package bingo

import "errors"

var (
	// ErrNotIdle: Connect was called while a session is already underway.
	ErrNotIdle = errors.New("bingo: session is not idle")

	// ErrNotInRoom: a room action was called before the handshake made this
	// client a member.
	ErrNotInRoom = errors.New("bingo: not in a room")

	// ErrSquareOutOfRange: the square index is outside 1..MaxSquares. The
	// call is rejected before any network traffic.
	ErrSquareOutOfRange = errors.New("bingo: square index out of range")

	// ErrTokenMissing: the service root page did not contain the hidden
	// anti-forgery token field.
	ErrTokenMissing = errors.New("bingo: csrf token not found in page")

	// ErrNoSocketKey: the join response did not carry the socket credential.
	ErrNoSocketKey = errors.New("bingo: join response missing socket_key")

	// ErrNoRoomCode: the create-room response URL did not contain a room
	// code.
	ErrNoRoomCode = errors.New("bingo: room code not found in response URL")

	// ErrConnectTimeout: the handshake event did not arrive within the
	// configured window; the connection has been torn down.
	ErrConnectTimeout = errors.New("bingo: timed out waiting for the room handshake")
)
