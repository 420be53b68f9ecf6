package main

import "likeboard/service"

func main() {
	service.Execute()
}
