package main

import (
	"log"
	"time"

	config "github.com/districtone/backend/configs"
	"github.com/districtone/backend/database"
	"github.com/districtone/backend/handlers"
	"github.com/districtone/backend/jobs"
	"github.com/districtone/backend/routes"
	"github.com/districtone/backend/services"
	"github.com/districtone/backend/verify"
	ws "github.com/districtone/backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	db := database.Connect()
	database.Migrate(db)

	abuseService := services.NewAbuseService(db)
	accountService := services.NewAccountService(db)
	sessionService := services.NewSessionService(db)
	likesService := services.NewLikesService(db)
	teamService := services.NewTeamService(db)

	hub := ws.NewHub()
	go hub.Run()

	syncJob := &jobs.TeamSyncJob{Teams: teamService}
	c := cron.New()
	c.AddFunc("0 */6 * * *", syncJob.Run)
	go c.Start()
	log.Println("✅ Cron job for team sync scheduled successfully.")

	h := &handlers.Handler{
		Abuse:    abuseService,
		Accounts: accountService,
		Sessions: sessionService,
		Likes:    likesService,
		Teams:    teamService,
		Verifier: verify.NewService(),
		Hub:      hub,
	}

	app := fiber.New(fiber.Config{
		AppName:       "District One",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.APIRoutes(app, h, hub)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.Config("PORT")
	if port == "" {
		port = "3001"
	}

	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
