package main

import (
	"context"
	"log"

	"github.com/cinescan/cinescan/pkg/app"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file loaded, relying on the environment")
	}

	a, err := app.New()
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	if err := a.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
