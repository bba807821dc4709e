package main

import "github.com/dbsmedya/starsift/cmd/starsift/cmd"

func main() {
	cmd.Execute()
}
