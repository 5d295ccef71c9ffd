package main

import (
	"fmt"
	"os"

	"github.com/nilsbr/gofat"
	"github.com/nilsbr/gofat/internal/blockdev"
)

func main() {
	argsWithoutProg := os.Args[1:]
	if len(argsWithoutProg) <= 0 {
		fmt.Println("Please provide a filename.")
		os.Exit(1)
	}

	device, err := blockdev.OpenFileDevice(argsWithoutProg[0], 512, true)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer device.Close()

	fs, err := gofat.New(device, gofat.ReadOnly())
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	fmt.Println(fs.Label(), fs.FSType(), fs.FileSystemTypeLabel())
}
