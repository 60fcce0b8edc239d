package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/torosent/crankcheck/internal/sampleserver"
)

func main() {
	port := flag.Int("port", 8000, "Listening port")
	flag.Parse()

	if *port <= 0 {
		log.Fatalf("port must be > 0")
	}

	addr := fmt.Sprintf(":%d", *port)
	server := &http.Server{
		Addr:              addr,
		Handler:           sampleserver.NewMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("sample routes listening on %s", addr)
	log.Fatal(server.ListenAndServe())
}
