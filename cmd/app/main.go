package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"docker-express-env/internal/config"
	"docker-express-env/internal/logging"
	"docker-express-env/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg)

	srv := server.New(logger, cfg)
	lambda.Start(srv.HandleLambda)
}
