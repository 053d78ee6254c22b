package env

import (
	"os"
	"strconv"
)

// Debug reports whether $DEBUG is set. The CLI sets it for --debug.
func Debug() bool {
	return os.Getenv("DEBUG") != ""
}

// Timeout returns the number of seconds in $FDLAYOUT_TIMEOUT, if set to an integer.
func Timeout() (int, bool) {
	if s := os.Getenv("FDLAYOUT_TIMEOUT"); s != "" {
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return int(i), true
		}
	}
	return -1, false
}
