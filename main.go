package main

import (
	"os"

	"github.com/AlexNa-Holdings/memestake/cmn"
	"github.com/AlexNa-Holdings/memestake/command"
)

func main() {
	if err := command.Execute(cmn.VERSION); err != nil {
		os.Exit(1)
	}
}
