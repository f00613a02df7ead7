// Command flapdqnd serves a training session over HTTP: a JSON command
// surface for controlling the session and a websocket stream of live
// metrics and evaluation results.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"flapdqn/agent/deepq"
	"flapdqn/environment"
	"flapdqn/environment/gapworld"
	"flapdqn/network"
	"flapdqn/trainer"
)

func main() {
	var (
		addr = flag.String("addr", ":8089", "listen address")
		seed = flag.Uint64("seed", 1, "seed for environments and agent")
	)
	flag.Parse()

	envConfig := gapworld.DefaultConfig()
	probe := gapworld.New(envConfig)

	agentConfig := deepq.NewConfig(probe.ObservationSize(), probe.NumActions())
	agentConfig.Seed = *seed
	sessionConfig := trainer.NewConfig(agentConfig)

	factory := func(seed uint64) environment.Environment {
		c := envConfig
		c.Seed = seed
		return gapworld.New(c)
	}

	session, err := trainer.New(factory, sessionConfig)
	if err != nil {
		log.Fatalf("could not create session: %v", err)
	}
	if err := session.Start(); err != nil {
		log.Fatalf("could not start session: %v", err)
	}
	defer session.Close()

	info := session.Backend()
	log.Printf("backend: %v (accelerated: %v)", info.BackendName,
		info.Accelerated)

	streams := newHub()
	go streams.pump(session)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, session, streams)

	server := &http.Server{Addr: *addr, Handler: router}
	go func() {
		log.Printf("listening on %v", *addr)
		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down")
	server.Close()
}

type valueRequest struct {
	Value float64 `json:"value" binding:"required"`
}

type intRequest struct {
	Value int `json:"value" binding:"required"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func registerRoutes(router *gin.Engine, session *trainer.Trainer, streams *hub) {
	api := router.Group("/api")

	api.POST("/train/start", command(session.Run))
	api.POST("/train/stop", command(session.Pause))
	api.POST("/train/fast/start", command(session.StartFast))
	api.POST("/train/fast/stop", command(session.StopFast))
	api.POST("/train/reset", command(session.Reset))

	api.GET("/status", func(c *gin.Context) {
		status, err := session.Status()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, status)
	})

	api.GET("/backend", func(c *gin.Context) {
		c.JSON(http.StatusOK, session.Backend())
	})

	api.POST("/config/epsilon", valueCommand(session.SetEpsilon))
	api.POST("/config/learning-rate", valueCommand(session.SetLearningRate))
	api.POST("/config/gamma", valueCommand(session.SetGamma))
	api.POST("/config/auto-decay", enabledCommand(session.SetAutoDecay))
	api.POST("/config/lr-schedule", enabledCommand(session.SetLRSchedule))

	api.POST("/config/train-frequency", func(c *gin.Context) {
		var req intRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := session.SetTrainFrequency(req.Value); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api.POST("/config/rewards", func(c *gin.Context) {
		var req environment.RewardConfig
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := session.SetRewardConfig(req); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api.GET("/weights", func(c *gin.Context) {
		snapshot, err := session.RequestWeights()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snapshot)
	})

	api.POST("/weights", func(c *gin.Context) {
		var snapshot network.Snapshot
		if err := c.ShouldBindJSON(&snapshot); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := session.SetWeights(&snapshot); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	router.GET("/ws", streams.handle)
}

// command adapts a no-argument session method to a gin handler
func command(fn func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func valueCommand(fn func(float64) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req valueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := fn(req.Value); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func enabledCommand(fn func(bool) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req enabledRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := fn(*req.Enabled); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// envelope tags every streamed message with its kind so one socket can
// carry both metrics and evaluation results
type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// hub fans the session's single metrics and eval streams out to every
// connected websocket client
type hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *hub) handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Drain client frames so pings and closes are processed; the
	// stream is one-directional otherwise
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

func (h *hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

func (h *hub) broadcast(msg envelope) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			h.drop(conn)
		}
	}
}

// pump forwards the session's outbound streams to all clients until
// the session closes its channels
func (h *hub) pump(session *trainer.Trainer) {
	metrics := session.Metrics()
	evals := session.EvalResults()
	for {
		select {
		case m, ok := <-metrics:
			if !ok {
				return
			}
			h.broadcast(envelope{Type: "metrics", Data: m})
		case r, ok := <-evals:
			if !ok {
				return
			}
			h.broadcast(envelope{Type: "eval", Data: r})
		}
	}
}
