package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/carlogapp/carlog-api/api/handlers"

	"go.uber.org/zap"

	"github.com/carlogapp/carlog-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database, record store and router
		log.Fatal(err)
	}
	defer a.Shutdown()

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	zap.S().Infow("carlog-api is up and running",
		"port", port,
		"url", baseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
