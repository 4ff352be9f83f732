package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterHealthRoute 健康检查
func (r *Router) RegisterHealthRoute() {
	r.Handle("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}

// RegisterLocationRoutes 位置上报与查询
func (r *Router) RegisterLocationRoutes(l *LocationHandler) {
	r.Handle("/api/v1/locations/update", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		l.UpdateLocation(w, req)
	})

	r.Handle("/api/v1/locations/fetch", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		l.FetchLocation(w, req)
	})

	// {patientId}/current 与 {patientId}/history
	// update/fetch 是精确模式，ServeMux 最长匹配优先，不会落到这里
	r.Handle("/api/v1/locations/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/locations/")
		parts := strings.Split(rest, "/")
		if len(parts) != 2 || parts[0] == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch parts[1] {
		case "current":
			l.GetCurrentLocation(w, req, parts[0])
		case "history":
			l.GetLocationHistory(w, req, parts[0])
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterSafeZoneRoutes 安全区域管理
// GET 的路径参数是 patientId，PUT/DELETE 的路径参数是 zoneId
func (r *Router) RegisterSafeZoneRoutes(s *SafeZoneHandler) {
	r.Handle("/api/v1/safezones", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.CreateSafeZone(w, req)
	})

	// zone/{zoneId}（更长前缀，优先于下面的 patientId 路由）
	r.Handle("/api/v1/safezones/zone/", func(w http.ResponseWriter, req *http.Request) {
		id := strings.TrimPrefix(req.URL.Path, "/api/v1/safezones/zone/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		switch req.Method {
		case http.MethodPut:
			s.UpdateSafeZone(w, req, id)
		case http.MethodDelete:
			s.DeleteSafeZone(w, req, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// {patientId}
	r.Handle("/api/v1/safezones/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(req.URL.Path, "/api/v1/safezones/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.ListSafeZones(w, req, id)
	})
}

// RegisterAlertRoutes 报警查询、确认与导出
func (r *Router) RegisterAlertRoutes(a *AlertHandler) {
	r.Handle("/api/v1/alerts/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/alerts/")
		if rest == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		parts := strings.Split(rest, "/")
		switch {
		case len(parts) == 1 && req.Method == http.MethodGet:
			a.ListAlerts(w, req, parts[0])
		case len(parts) == 2 && parts[1] == "export" && req.Method == http.MethodGet:
			a.ExportAlerts(w, req, parts[0])
		case len(parts) == 2 && parts[1] == "acknowledge" && req.Method == http.MethodPut:
			a.AcknowledgeAlert(w, req, parts[0])
		case len(parts) == 1 || len(parts) == 2:
			w.WriteHeader(http.StatusMethodNotAllowed)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// RegisterWSRoutes 实时推送桥接
func (r *Router) RegisterWSRoutes(ws *WSHandler) {
	r.Handle("/ws/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(req.URL.Path, "/ws/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		ws.Serve(w, req, id)
	})
}
