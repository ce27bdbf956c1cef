package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/gateway/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/checkout", handler.Checkout)
	r.Get("/checkout/{id}", handler.CheckoutState)
	r.Post("/payment", handler.BeginPayment)
	r.Get("/payment/thank-you", handler.PaymentThankYou)
	r.Get("/payment/{id}", handler.AwaitPayment)
	r.Get("/orders", handler.Orders)

	r.Route("/location", func(r chi.Router) {
		r.Get("/", handler.Location)
		r.Post("/", handler.SelectLocation)
		r.Delete("/", handler.ClearLocation)
		r.Get("/reverse", handler.ReverseGeocode)
		r.Get("/search", handler.SearchAddress)
		r.Get("/places/{id}", handler.PlaceDetails)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", handler.Cart)
		r.Delete("/", handler.ClearCart)
		r.Post("/items", handler.AddCartItem)
		r.Patch("/items/{id}", handler.UpdateCartItem)
		r.Delete("/items/{id}", handler.RemoveCartItem)
	})

	return r
}
