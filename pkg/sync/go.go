package sync

import "github.com/checkmate3d/taxograph/pkg/safe"

// Go same to safe.Go.
func Go(fn func(), errfns ...func(error)) {
	safe.Go(fn, errfns...)
}
