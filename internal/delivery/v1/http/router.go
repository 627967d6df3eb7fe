package http

import (
	"time"

	_ "github.com/DRSN-tech/storefront-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// UseCases — всё, что нужно HTTP-слою.
type UseCases struct {
	Catalog   usecase.CatalogUC
	Cart      usecase.CartUC
	Inventory usecase.InventoryUC
	Order     usecase.OrderUC
	Review    usecase.ReviewUC
	User      usecase.UserUC
}

type Router struct {
	router         *chi.Mux
	logger         logger.Logger
	requestTimeout time.Duration
}

func NewRouter(router *chi.Mux, logger logger.Logger, requestTimeout time.Duration) *Router {
	return &Router{router: router, logger: logger, requestTimeout: requestTimeout}
}

func (r *Router) Init(uc UseCases) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(requestLogger(r.logger))
	r.router.Use(middleware.Recoverer)
	if r.requestTimeout > 0 {
		r.router.Use(middleware.Timeout(r.requestTimeout))
	}

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	auth := NewAuthMiddleware(uc.User, r.logger)
	catalog := NewCatalogHandler(uc.Catalog, uc.Review, uc.Inventory, r.logger)
	cart := NewCartHandler(uc.Cart, r.logger)
	orders := NewOrderHandler(uc.Order, r.logger)
	reviews := NewReviewHandler(uc.Review, r.logger)
	users := NewUserHandler(uc.User, r.logger)

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerAuthRoutes(v1, users)
		registerCatalogRoutes(v1, catalog, reviews, auth)

		v1.Group(func(private chi.Router) {
			private.Use(auth.Authenticate)

			private.Get("/me", users.me)
			registerCartRoutes(private, cart)
			registerOrderRoutes(private, orders)

			private.Route("/admin", func(admin chi.Router) {
				admin.Use(RequireAdmin)
				registerAdminRoutes(admin, catalog, cart, orders, reviews, users)
			})
		})
	})
}

func registerAuthRoutes(router chi.Router, users *UserHandler) {
	router.Post("/auth/register", users.register)
	router.Post("/auth/login", users.login)
}

func registerCatalogRoutes(router chi.Router, catalog *CatalogHandler, reviews *ReviewHandler, auth *AuthMiddleware) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", catalog.listProducts)
		pr.Get("/{id}", catalog.getProduct)
		pr.Get("/{id}/reviews", reviews.listProductReviews)
		pr.With(auth.Authenticate).Post("/{id}/reviews", reviews.submitReview)
		pr.With(auth.Authenticate).Get("/{id}/reviews/eligibility", reviews.eligibility)
	})

	router.Route("/categories", func(cat chi.Router) {
		cat.Get("/", catalog.listCategories)
		cat.Get("/{id}", catalog.getCategory)
	})
}

func registerCartRoutes(router chi.Router, cart *CartHandler) {
	router.Route("/cart", func(c chi.Router) {
		c.Get("/", cart.getCart(currentUser))
		c.Delete("/", cart.clear(currentUser))
		c.Post("/items", cart.addItem)
		c.Put("/items/{productID}", cart.setItemQuantity(currentUser))
		c.Delete("/items/{productID}", cart.removeItem(currentUser))
		c.Post("/items/{productID}/increment", cart.incrementItem)
		c.Post("/items/{productID}/decrement", cart.decrementItem)
	})
}

func registerOrderRoutes(router chi.Router, orders *OrderHandler) {
	router.Route("/orders", func(o chi.Router) {
		o.Post("/", orders.checkout)
		o.Get("/", orders.listMyOrders)
		o.Get("/{id}", orders.getOrder)
	})
}

func registerAdminRoutes(
	router chi.Router,
	catalog *CatalogHandler,
	cart *CartHandler,
	orders *OrderHandler,
	reviews *ReviewHandler,
	users *UserHandler,
) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", catalog.adminListProducts)
		pr.Post("/", catalog.createProduct)
		pr.Get("/{id}", catalog.adminGetProduct)
		pr.Patch("/{id}", catalog.updateProduct)
		pr.Delete("/{id}", catalog.deleteProduct)
		pr.Post("/{id}/image", catalog.uploadProductImage)
		pr.Get("/{id}/inventory", catalog.getInventory)
		pr.Post("/{id}/restock", catalog.restock)
	})

	router.Route("/categories", func(cat chi.Router) {
		cat.Post("/", catalog.createCategory)
		cat.Put("/{id}", catalog.updateCategory)
		cat.Delete("/{id}", catalog.deleteCategory)
	})

	router.Route("/orders", func(o chi.Router) {
		o.Get("/", orders.listAllOrders)
		o.Post("/", orders.adminCreateOrder)
		o.Get("/stats", orders.orderStats)
		o.Get("/{id}", orders.getOrder)
		o.Patch("/{id}/status", orders.setStatus)
	})

	router.Route("/carts", func(c chi.Router) {
		c.Get("/", cart.listCarts)
		c.Get("/{userID}", cart.getCart(pathUser))
		c.Delete("/{userID}", cart.clear(pathUser))
		c.Put("/{userID}/items/{productID}", cart.setItemQuantity(pathUser))
		c.Delete("/{userID}/items/{productID}", cart.removeItem(pathUser))
	})

	router.Route("/reviews", func(rv chi.Router) {
		rv.Get("/", reviews.listReviews)
		rv.Get("/{id}", reviews.getReview)
		rv.Delete("/{id}", reviews.deleteReview)
	})

	router.Route("/users", func(u chi.Router) {
		u.Get("/", users.listUsers)
		u.Post("/", users.adminCreateUser)
		u.Get("/{id}", users.getUser)
		u.Patch("/{id}", users.updateUser)
		u.Delete("/{id}", users.deleteUser)
	})
}
