package server

import (
	"log"

	"github.com/kcho760/BlockBuzzNYC-sub000/internal/auth"
	"github.com/kcho760/BlockBuzzNYC-sub000/internal/chat"
	"github.com/kcho760/BlockBuzzNYC-sub000/internal/config"
	"github.com/kcho760/BlockBuzzNYC-sub000/internal/mapview"
	"github.com/kcho760/BlockBuzzNYC-sub000/internal/pin"
	"github.com/kcho760/BlockBuzzNYC-sub000/internal/storage"
	"github.com/kcho760/BlockBuzzNYC-sub000/internal/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client
	Chat  *chat.Hub
	Map   *mapview.Controller
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:   app,
		Cfg:   cfg,
		DB:    db,
		Redis: redisClient,
		Chat:  chat.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	pinSvc := pin.NewService(s.DB)
	s.Map = mapview.NewController(pinSvc, s.Cfg.PinRadiusM)

	var uploader storage.Uploader
	if s.Cfg.CloudinaryCloudName != "" {
		up, err := storage.NewCloudinaryUploader(s.Cfg.CloudinaryCloudName, s.Cfg.CloudinaryAPIKey, s.Cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("cloudinary init failed, uploads disabled: %v", err)
		} else {
			uploader = up
		}
	}

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB), jwtMiddleware)
	user.RegisterRoutes(s.App.Group("/users"), user.NewService(s.DB), jwtMiddleware)
	pin.RegisterRoutes(s.App.Group("/pins"), pinSvc, jwtMiddleware)
	chat.RegisterRoutes(s.App.Group("/chats"), chat.NewService(s.DB, s.Chat), s.Chat, jwtMiddleware)
	mapview.RegisterRoutes(s.App.Group("/map"), s.Map, jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB, uploader), jwtMiddleware)
}
