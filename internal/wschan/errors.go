package wschan

import "errors"

// ErrBinaryFrame is returned by Recv when the peer sends a binary message.
var ErrBinaryFrame = errors.New("wschan: binary frame received")
