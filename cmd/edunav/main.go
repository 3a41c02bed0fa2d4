package main

import "github.com/kart-io/edunav/cmd/edunav/app"

func main() {
	app.NewApp().Run()
}
