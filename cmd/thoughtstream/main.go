package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"thoughtstream/middleware"
	"thoughtstream/pkg/comments"
	"thoughtstream/pkg/config"
	"thoughtstream/pkg/feedview"
	"thoughtstream/pkg/forms"
	"thoughtstream/pkg/gateway"
	"thoughtstream/pkg/handlers"
	"thoughtstream/pkg/notify"
	"thoughtstream/pkg/posts"
)

func AddHandleFuncs(r *mux.Router, f handlers.FeedHandler, p handlers.PostHandler) {
	r.HandleFunc("/api/feed", f.GetFeed).Methods("GET")
	r.HandleFunc("/api/feed/refresh", f.Refresh).Methods("POST")
	r.HandleFunc("/api/feed/filter", f.SetFilter).Methods("POST")
	r.HandleFunc("/api/feed/page/next", f.NextPage).Methods("POST")
	r.HandleFunc("/api/feed/page/prev", f.PrevPage).Methods("POST")
	r.HandleFunc("/api/feed/section", f.SetSection).Methods("POST")
	r.HandleFunc("/api/notifications", f.GetNotifications).Methods("GET")
	r.HandleFunc("/api/posts", p.AddPost).Methods("POST")
	r.HandleFunc("/api/posts/{ID}", p.UpdatePost).Methods("PUT")
	r.HandleFunc("/api/posts/{ID}", p.DeletePost).Methods("DELETE")
	r.HandleFunc("/api/posts/{ID}/edit", p.OpenEdit).Methods("POST")
	r.HandleFunc("/api/edit/close", p.CloseEdit).Methods("POST")
	r.HandleFunc("/api/posts/{ID}/comments", p.GetComments).Methods("GET")
	r.HandleFunc("/api/posts/{ID}/like", p.ToggleLike).Methods("POST")
	r.HandleFunc("/api/posts/{ID}/expand", p.ToggleExpand).Methods("POST")
	r.HandleFunc("/api/comments/{ID}/like", p.ToggleCommentLike).Methods("POST")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("new logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	lg := logger.Sugar()

	client := gateway.New(cfg.Upstream, cfg.ClientTimeout(), lg)
	toasts := notify.New(lg)
	controller := posts.NewFeedController(client, toasts, lg)
	form := forms.NewCreateForm(controller.Create, lg)
	dialog := forms.NewDialog(controller.Update, lg)
	viewer := comments.NewViewer(client, lg)

	// Initial fetch in the background so the server is responsive while
	// the feed loads.
	go controller.Refresh(context.Background())

	f := handlers.FeedHandler{
		Controller: controller,
		Form:       form,
		Dialog:     dialog,
		Notifier:   toasts,
		Caps:       feedview.Capabilities{Edit: true, Delete: true},
		Logger:     lg,
	}
	p := handlers.PostHandler{
		Controller: controller,
		Form:       form,
		Dialog:     dialog,
		Viewer:     viewer,
		Logger:     lg,
	}

	r := mux.NewRouter()
	r.Use(middleware.Metrics)
	AddHandleFuncs(r, f, p)

	staticHTMLPath := filepath.Join(cfg.StaticDir, "html", "index.html")
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, staticHTMLPath)
	})
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	handler := middleware.Recovery(lg, middleware.RequestID(middleware.AccessLog(lg, r)))

	lg.Infow("listening", "addr", cfg.Addr, "upstream", cfg.Upstream)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}
