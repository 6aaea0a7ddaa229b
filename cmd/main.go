// cmd/main.go
package main

import cmd "github.com/mwiater/lhmedian/cmd/lhmedian"

// main starts the lhmedian CLI by delegating to the cobra root command
// defined in the lhmedian package.
func main() {
	cmd.Execute()
}
