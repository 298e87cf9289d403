package main

import (
	"context"
	"log"

	"example/newsbrief-api/app"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
)

var ginLambda *ginadapter.GinLambda

// init runs once per Lambda container (cold start)
func init() {
	app.MustInitDB()
	app.InitStripe()

	router, err := app.NewRouter()
	if err != nil {
		log.Fatalf("failed to initialize router: %v", err)
	}

	ginLambda = ginadapter.New(router)
}

// Handler is the Lambda entrypoint for API Gateway REST/HTTP API (proxy integration)
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
