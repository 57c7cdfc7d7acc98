package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/chat-relay-demo/config"
	"github.com/example/chat-relay-demo/modules/api"
	"github.com/example/chat-relay-demo/modules/chat"
	"github.com/example/chat-relay-demo/modules/presence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	chatModule := chat.NewModule(cfg)
	presenceModule := presence.NewModule()
	apiModule := api.NewModule(cfg)

	// Live connections cannot cross the JSON service boundary, so the
	// API module gets the manager directly for session registration,
	// broadcasting and heartbeat touches.
	apiModule.SetManager(chatModule.Manager())

	// Order: independent modules first, then modules with dependencies
	// - chat: core domain (ServiceProviderModule + EventEmitterModule)
	// - presence: event consumer (activity counters + stats service)
	// - api: driving adapter (Fiber REST + WebSocket, depends on both)
	app.Register(chatModule)
	app.Register(presenceModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", cfg.Port)
	log.Println("  GET    /health                          - Health check")
	log.Println("  GET    /api/stats                       - Activity statistics")
	log.Println("  GET    /api/rooms                       - List all rooms")
	log.Println("  POST   /api/rooms                       - Create a room")
	log.Println("  GET    /api/rooms/:roomId               - Get room details")
	log.Println("  POST   /api/rooms/:roomId/join          - Join a room")
	log.Println("  DELETE /api/rooms/:roomId/leave/:userId - Leave a room")
	log.Println("  GET    /api/rooms/:roomId/users         - List room members")
	log.Println("  GET    /api/rooms/:roomId/messages      - Message history")
	log.Println("")
	log.Printf("WebSocket Endpoint: ws://localhost:%s/ws/:roomId/:userId", cfg.Port)
	log.Println("  Join a room over REST first, then connect with the returned user ID")
	log.Println("  Chat frames: {\"content\": \"...\"}; heartbeat: literal ping/pong")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
