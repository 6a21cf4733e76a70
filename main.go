package main

import (
	"alumni_events/database"
	"alumni_events/handler"
	"alumni_events/helper"
	"alumni_events/notify"
	"alumni_events/router"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	database.ConnectDB()

	if err := notify.Connect(); err != nil {
		log.Println("notification broker unavailable, sending emails directly:", err)
	}
	defer notify.Close()
	go notify.StartConsumer()

	helper.StartEventStatusScheduler()
	defer helper.StopEventStatusScheduler()
	handler.StartWaitlistExpiryWorker()
	defer handler.StopWaitlistExpiryWorker()

	router.SetupRoutes(app)
	log.Fatal(app.Listen(":8002"))
}
