package main

import "github.com/frahmantamala/user-access-management/cmd"

func main() {
	cmd.Execute()
}
