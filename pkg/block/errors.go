// pkg/block/errors.go

package block

import "github.com/pkg/errors"

// ErrClosed is returned when a block is read before Open or after its
// matching Close.
var ErrClosed = errors.New("channel not open")
