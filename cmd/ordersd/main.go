package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/backend"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/cache"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/checkout"
	checkoutsqlite "github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/checkout/checkoutlog/sqlite"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/gateway/httpx"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/geocode"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/payment"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/pkg/telemetry"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/cart"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/kv"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/location"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/ordertype"
	"github.com/LUNION-LAB-ORG/chicken-nation-app-sub000/internal/store/session"
)

const serviceName = "ordersd"

func main() {
	ctx := context.Background()

	telemetry.InitLogger(serviceName)

	shutdown, err := telemetry.SetupTracer(ctx, serviceName)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutCtx)
		}()
	}

	httpAddr := getEnv("LISTEN_ADDR", ":8080")
	backendURL := getEnv("BACKEND_URL", "https://api.chicken-nation.com")
	dataDir := getEnv("DATA_DIR", "./data")
	redisAddr := os.Getenv("REDIS_ADDR")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	store, err := kv.Open(dataDir + "/app.db")
	if err != nil {
		log.Fatalf("open kv store: %v", err)
	}
	defer store.Close()

	checkoutLog, err := checkoutsqlite.Open(dataDir + "/checkout.db")
	if err != nil {
		log.Fatalf("open checkout log: %v", err)
	}
	defer checkoutLog.Close()

	if closed, err := checkout.CloseStaleRuns(ctx, checkoutLog, nil); err != nil {
		log.Printf("checkout log recovery: %v", err)
	} else if len(closed) > 0 {
		log.Printf("closed %d checkout runs interrupted by the previous shutdown", len(closed))
	}

	sessionStore, err := session.New(ctx, store)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	cartStore, err := cart.New(ctx, store)
	if err != nil {
		log.Fatalf("cart store: %v", err)
	}
	locationStore, err := location.New(ctx, store)
	if err != nil {
		log.Fatalf("location store: %v", err)
	}
	orderTypeStore, err := ordertype.New(ctx, store, nil)
	if err != nil {
		log.Fatalf("ordertype store: %v", err)
	}

	api := backend.New(backendURL, sessionStore, nil)

	var orderCache cache.Cache
	if redisAddr != "" {
		orderCache = cache.NewRedis(redisAddr, serviceName)
	} else {
		orderCache = cache.NewMemory(serviceName)
	}

	checkoutService := checkout.NewService(
		api, cartStore, sessionStore, locationStore, orderTypeStore,
		checkoutLog, orderCache, nil,
	)

	nominatim := geocode.NewNominatim(os.Getenv("NOMINATIM_URL"),
		getEnv("GEOCODE_USER_AGENT", serviceName+"/1.0"))
	var places *geocode.Places
	if apiKey := os.Getenv("GOOGLE_PLACES_API_KEY"); apiKey != "" {
		places = geocode.NewPlaces(apiKey)
	}
	paymentFlow := payment.NewFlow(api, nil, 0, 0)

	handler := httpx.NewHandler(checkoutService, cartStore, sessionStore,
		orderTypeStore, locationStore, paymentFlow, nominatim, places, checkoutLog)
	router := httpx.NewRouter(handler)

	log.Printf("%s listening on %s (backend %s)", serviceName, httpAddr, backendURL)
	if err := http.ListenAndServe(httpAddr, router); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
