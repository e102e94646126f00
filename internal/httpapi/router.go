package httpapi

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/groqchat/internal/chat"
	"github.com/suPer8Hu/groqchat/internal/common"
	"github.com/suPer8Hu/groqchat/internal/httpapi/handlers"
	"github.com/suPer8Hu/groqchat/internal/httpapi/middleware"
	"github.com/suPer8Hu/groqchat/internal/render"
	"github.com/suPer8Hu/groqchat/internal/store/redisstore"
	"go.uber.org/zap"
)

//go:embed web/*.html
var webFS embed.FS

type Deps struct {
	Log      *zap.Logger
	Renderer handlers.Renderer

	// async job mode, all three or none
	Jobs      *chat.Service
	Publisher handlers.JobPublisher
	Frames    *redisstore.Store

	Heartbeat time.Duration
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.Recovery(d.Log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())
	r.Use(middleware.ClientID())

	r.SetHTMLTemplate(template.Must(template.ParseFS(webFS, "web/*.html")))

	async := d.Jobs != nil && d.Publisher != nil && d.Frames != nil

	h := &handlers.Handler{
		Log:      d.Log,
		Renderer: d.Renderer,
		Guard:    render.NewGuard(),
		Markup:   render.NewMarkup(),
		Page: handlers.PageData{
			Title:   "Groq LLaMA3 Chatbot",
			Welcome: "Welcome to your personal AI assistant powered by LLaMA 3 + Groq. Ask anything below:",
			Async:   async,
		},
		Heartbeat: d.Heartbeat,
	}
	if async {
		h.Jobs = d.Jobs
		h.Publisher = d.Publisher
		h.Frames = d.Frames
	}

	r.GET("/", h.Index)
	r.GET("/ping", h.Ping)

	r.GET("/chat/stream", h.StreamChat)
	r.POST("/chat/stream", h.StreamChat)

	if async {
		jobs := r.Group("/chat/jobs")
		jobs.POST("", h.CreateJob)
		jobs.GET("/:job_id", h.GetJob)
		jobs.GET("/:job_id/stream", h.StreamJob)
	}
	return r
}
