package main

import "github.com/JavierABADdelMolino/TASKLY-sub000/cmd"

func main() {
	cmd.Execute()
}
