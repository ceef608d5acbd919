package main

import (
	"log"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/joho/godotenv"

	_ "github.com/youquery/backend"
)

const port = "8082"

func main() {
	// local runs read the function env from .env; deployed functions get
	// it from the runtime
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	log.Println("Started")

	if err := funcframework.Start(port); err != nil {
		log.Fatalf("funcframework.Start: %v\n", err)
	}

	log.Println("Done")
}
