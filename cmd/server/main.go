package main

import "feedback360/internal/app/server"

func main() {
	server.Run()
}
