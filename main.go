package main

import (
	"os"
	"runtime/debug"

	"github.com/globalfoundation/gnf/cmd"
	"github.com/globalfoundation/gnf/logx"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			_ = logx.Errorf("gnf crashed: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	cmd.Execute()
}
