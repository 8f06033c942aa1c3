package main

import (
	"log"

	"github.com/tech-arch1tect/angrymail/app"
)

func main() {
	application, err := app.NewApp().
		WithAutoConfig().
		WithMail().
		WithSessions().
		Build()
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	application.Run()
}
