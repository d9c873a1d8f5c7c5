package main

import (
	"github.com/corray333/backend-labs/canteen/internal/app"
	"github.com/corray333/backend-labs/canteen/internal/config"
)

func main() {
	cfg := config.MustLoad()
	app.MustNewApp(cfg).Run()
}
