package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/leaf/cmd/leaf-collector/app"
)

func main() {
	app.NewApp().Run()
}
