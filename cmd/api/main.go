package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"storefront/pkg/catalog"
	catalogpg "storefront/pkg/catalog/postgres"
	"storefront/pkg/checkout"
	"storefront/pkg/config"
	"storefront/pkg/customer"
	customerpg "storefront/pkg/customer/postgres"
	"storefront/pkg/logger"
	"storefront/pkg/order"
	orderpg "storefront/pkg/order/postgres"
	"storefront/pkg/otel"
	"storefront/pkg/postgres"

	_ "storefront/docs"
)

var (
	redisClient *redis.Client
	customers   customer.Repository
	products    catalog.Repository
	orders      order.Repository
	placer      *checkout.Service
)

// @title Storefront API
// @version 1.0
// @description Order placement over a shared product catalog
// @host localhost:8443
// @BasePath /
func main() {
	logger.Init(config.ServiceName)
	defer logger.Sync()
	log := logger.Log

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	_, shutdown, err := otel.InitTracing(context.Background(), otel.Config{
		ServiceName: config.ServiceName,
		Endpoint:    cfg.OtelEndpoint,
		Probability: 1.0,
	})
	if err != nil {
		log.Fatal("init tracing", zap.Error(err))
	}
	defer shutdown(context.Background())

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	if err := db.Migrate(context.Background()); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	customers = customerpg.New(db)
	products = catalogpg.New(db)
	orders = orderpg.New(db)
	placer = checkout.NewService(customers, products, orders, db)

	redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	r := mux.NewRouter()
	r.Use(traceMiddleware)
	r.HandleFunc("/login", loginHandler).Methods(http.MethodPost)
	r.HandleFunc("/customers", createCustomerHandler).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(authMiddleware)
	api.HandleFunc("/products", createProductHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders", createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders", listOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", getOrderHandler).Methods(http.MethodGet)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	log.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServeTLS(cfg.Addr, cfg.CertFile, cfg.KeyFile, r); err != nil {
		log.Error("server closed", zap.Error(err))
		os.Exit(1)
	}
}

// loginRequest represents login credentials.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginHandler handles user login and session creation.
// @Summary Login
// @Description Authenticates user and sets session cookie
// @Accept json
// @Produce json
// @Param creds body loginRequest true "Credentials"
// @Success 200
// @Router /login [post]
func loginHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "loginHandler")
	defer span.End()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid credentials", http.StatusBadRequest)
		return
	}
	sid := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := redisClient.Set(ctx, "session:"+sid, req.Username, time.Hour).Err(); err != nil {
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "session_id", Value: sid, Path: "/", Expires: time.Now().Add(time.Hour), HttpOnly: true})
	w.WriteHeader(http.StatusOK)
}

// authMiddleware ensures a valid session exists.
func authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session_id")
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		user, err := redisClient.Get(r.Context(), "session:"+c.Value).Result()
		if err != nil || user == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// createCustomerHandler registers a customer.
// @Summary Create customer
// @Accept json
// @Produce json
// @Param customer body customer.Customer true "Customer"
// @Success 201 {object} customer.Customer
// @Router /customers [post]
func createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createCustomerHandler")
	defer span.End()

	var c customer.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if c.Name == "" || c.Email == "" {
		http.Error(w, "name and email are required", http.StatusBadRequest)
		return
	}
	created, err := customers.Create(ctx, c)
	if err != nil {
		writeError(ctx, w, "create customer", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// createProductHandler adds a product to the catalog.
// @Summary Create product
// @Accept json
// @Produce json
// @Param product body catalog.Product true "Product"
// @Success 201 {object} catalog.Product
// @Security ApiKeyAuth
// @Router /products [post]
func createProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createProductHandler")
	defer span.End()

	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.Name == "" || p.Price.IsNegative() || p.Quantity < 0 {
		http.Error(w, "name, non-negative price and quantity are required", http.StatusBadRequest)
		return
	}
	created, err := products.Create(ctx, p)
	if err != nil {
		writeError(ctx, w, "create product", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// createOrderRequest is the order placement payload.
type createOrderRequest struct {
	CustomerID string          `json:"customer_id"`
	Products   []checkout.Line `json:"products"`
}

// createOrderHandler places a new order.
// @Summary Create order
// @Accept json
// @Produce json
// @Param order body createOrderRequest true "Order"
// @Success 201 {object} order.Order
// @Security ApiKeyAuth
// @Router /orders [post]
func createOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrderHandler")
	defer span.End()

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	o, err := placer.CreateOrder(ctx, req.CustomerID, req.Products)
	if err != nil {
		writeError(ctx, w, "create order", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(o)
}

// listOrdersHandler lists orders.
// @Summary List orders
// @Produce json
// @Success 200 {array} order.Order
// @Security ApiKeyAuth
// @Router /orders [get]
func listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	all, err := orders.List(ctx)
	if err != nil {
		writeError(ctx, w, "list orders", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(all)
}

// getOrderHandler retrieves an order by ID.
// @Summary Get order
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} order.Order
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	o, err := orders.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(ctx, w, "get order", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(o)
}

// writeError maps domain errors to HTTP statuses.
func writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, checkout.ErrCustomerNotFound),
		errors.Is(err, checkout.ErrProductNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, checkout.ErrInsufficientStock),
		errors.Is(err, catalog.ErrConflict),
		errors.Is(err, customer.ErrEmailTaken),
		errors.Is(err, catalog.ErrNameTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, checkout.ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Log.Error(op, zap.Error(err), zap.String("trace_id", otel.GetTraceID(ctx)))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.AddSpan(r.Context(), r.Method+" "+r.URL.Path)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
