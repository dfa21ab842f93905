package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/leaf/cmd/leaf-agent/app"
)

func main() {
	app.NewApp().Run()
}
