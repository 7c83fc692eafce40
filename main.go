package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/firtrack/fir-tracking-api/api/handlers"
	"github.com/firtrack/fir-tracking-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil { //initialize database and router
		log.Fatal(err)
	}

	port := os.Getenv("PORT")
	baseURL := os.Getenv("BASE_URL")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%v", port),
		Handler: a.Router,
	}

	go func() {
		zap.S().Infow("fir-tracking-api is up and running",
			"port", port,
			"url", baseURL,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zap.S().Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Errorw("server shutdown error", "error", err)
	}
	a.Shutdown()
}
