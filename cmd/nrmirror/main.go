// Command nrmirror mirrors a numerical-relativity waveform catalog into a
// local cache.
package main

import "github.com/mesh-intelligence/nrmirror/internal/cli"

func main() {
	cli.Execute()
}
