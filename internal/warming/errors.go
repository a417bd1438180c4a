package warming

import "errors"

// ErrNoDomains reports an empty domain list; the run cannot start.
var ErrNoDomains = errors.New("no domains to warm")

// ErrUserAborted reports that the operator declined confirmation or
// interrupted the run.
var ErrUserAborted = errors.New("aborted by user")
