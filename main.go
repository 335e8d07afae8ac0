package main

import (
	"github.com/coinchimp/whistle/cmd/whistle"
)

func main() {
	whistle.Execute()
}
