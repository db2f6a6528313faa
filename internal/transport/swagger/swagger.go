package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

func Handler() http.Handler {
	// UI backed by the OpenAPI document served at root
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"),
	)
}
