package internal

import (
	"listenerd/internal/controllers"
	"listenerd/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/live", http.HandlerFunc(apiController.GetLive))
	routers.Get("/series", http.HandlerFunc(apiController.GetSeries))
	routers.Get("/buckets", http.HandlerFunc(apiController.GetBuckets))
	routers.Get("/events/crashes", http.HandlerFunc(apiController.GetCrashes))
	routers.Get("/events/shows", http.HandlerFunc(apiController.GetShows))
	routers.Get("/export", http.HandlerFunc(apiController.Export))
	routers.Get("/samples", http.HandlerFunc(apiController.GetSamples))
	return routers
}
