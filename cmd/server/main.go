package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kevmo/sprintdeck/internal/ai"
	"github.com/kevmo/sprintdeck/internal/ai/ollama"
	"github.com/kevmo/sprintdeck/internal/ai/openai"
	"github.com/kevmo/sprintdeck/internal/analysis"
	"github.com/kevmo/sprintdeck/internal/config"
	"github.com/kevmo/sprintdeck/internal/deck"
	"github.com/kevmo/sprintdeck/internal/game"
	"github.com/kevmo/sprintdeck/internal/ws"
	staticserver "github.com/kevmo/sprintdeck/static"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`sprintdeck - Real-time scrum poker

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 5000 or PORT env var)

Environment Variables:
  PORT                Port to listen on (default: 5000)
  DEFAULT_PROVIDER    AI provider: "openai" or "ollama" (default: openai)
  DEFAULT_MODEL       AI model for vote analysis (default: openai/gpt-4.1)
  GITHUB_TOKEN        API key for the GitHub-hosted inference endpoint
  OPENAI_API_KEY      API key fallback when GITHUB_TOKEN is unset
  OPENAI_BASE_URL     Custom OpenAI-compatible base URL (optional)
  OLLAMA_HOST         Ollama host URL (default: http://localhost:11434)
  AI_TIMEOUT_SECONDS  Vote analysis request timeout (default: 15)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000

Visit http://localhost:5000 after starting the server.
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("sprintdeck %s\n", version)
		return
	}

	// Config
	cfg := config.FromEnv()
	port := *portFlag
	if port == "" {
		port = cfg.Port
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Room store + session engine
	rm := game.NewManager()

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "rooms": rm.Len(), "time": time.Now().UTC()})
	})

	// Card catalog for the lobby's set picker.
	r.GET("/api/cardsets", func(c *gin.Context) {
		sets := gin.H{}
		for _, id := range deck.IDs() {
			sets[id] = deck.Cards(id)
		}
		c.JSON(http.StatusOK, sets)
	})

	// Analysis provider
	var provider ai.Provider
	switch strings.ToLower(cfg.DefaultProvider) {
	case "ollama":
		provider = ollama.New(cfg.OllamaHost)
	default:
		provider = openai.New(cfg.APIKey, cfg.OpenAIBaseURL)
	}
	bridge := analysis.New(provider, cfg.DefaultModel, cfg.AITimeout)

	// Socket gateway
	sock := ws.New(rm, bridge)
	io := sock.Mount(r)
	defer io.Close()

	// Room pages 404 for unknown ids; rendering is the SPA's job.
	r.GET("/room/:id", func(c *gin.Context) {
		if !rm.Exists(c.Param("id")) {
			c.Status(http.StatusNotFound)
			return
		}
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	// Serve frontend (if embedded build is present) for all other routes
	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	log.Printf("listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
