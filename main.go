package main

import "github.com/wangdayong228/ydyl-shim/cmd"

func main() {
	cmd.Execute()
}
