// filepath: cmd/sonerezh/main.go
package main

import "sonerezh/internal/cli"

func main() {
	// Delegate all execution to the CLI package
	cli.Execute()
}
