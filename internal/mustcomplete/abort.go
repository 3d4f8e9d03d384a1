package mustcomplete

import "os"

// abort terminates the process. It is a package variable rather than a
// direct os.Exit call so tests can substitute a non-fatal stand-in to
// exercise the Goexit path without killing the test binary.
var abort = func() { os.Exit(2) }
