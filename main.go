// Public domain.

package main

import "github.com/soniakeys/cnmoonmars/internal/cnprog"

func main() {
	cnprog.Main()
}
