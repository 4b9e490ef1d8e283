package main

import "github.com/dalyulbam/Class101LLL/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
