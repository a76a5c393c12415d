package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"chathub/internal/api"
	"chathub/internal/config"
	"chathub/internal/hub"
	"chathub/internal/registry"
	"chathub/internal/room"
	"chathub/internal/store"
	"chathub/internal/upload"
)

func main() {
	// 1. Config & Flags
	cfg := config.FromEnv()
	addr := flag.String("addr", cfg.Addr, "http service address")
	flag.Parse()

	// 2. Core state
	reg := registry.New(cfg.DefaultRoom)
	rooms := room.NewDirectory(cfg.DefaultRoom)
	messages := store.New(cfg.HistoryLimit)

	// 3. Upload bridge
	files, err := upload.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("❌ Failed to init upload store: %v", err)
	}
	uploadHandler := upload.NewHandler(files, cfg.MaxUploadSize)

	// 4. Broadcast router
	h := hub.New(reg, rooms, messages)
	go h.Run()

	apiHandler := api.NewHandler(reg, rooms, messages)

	// 5. Routes
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", h.ServeWs)
	r.Get("/api/messages", apiHandler.GetMessages)
	r.Get("/api/users", apiHandler.GetUsers)
	r.Get("/api/rooms", apiHandler.GetRooms)
	r.Post("/upload", uploadHandler.Upload)
	r.Get("/uploads/{name}", uploadHandler.Serve)

	server := &http.Server{Addr: *addr, Handler: r}

	// 6. Run until interrupted, then drain
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("🚀 Server starting on %s", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := h.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Printf("Hub shutdown: %v", err)
	}
	log.Println("✅ Shutdown complete")
}
