package main

import (
	"github.com/rabithua/chatmemo/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		panic(err)
	}
}
