//go:build windows

package exit

import "os"

func terminationSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
