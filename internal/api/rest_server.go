// Package api - REST-сервер авторитетной воксельной сетки.
package api

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/middleware"
	"github.com/annel0/voxel-editor/internal/project"
	"github.com/annel0/voxel-editor/internal/protocol"
	"github.com/annel0/voxel-editor/internal/storage"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Сообщения об ошибках совпадают с теми, что ждут существующие клиенты
const (
	msgOutOfBounds    = "Coordinates out of bounds"
	msgInvalidSize    = "Invalid grid size"
	msgInvalidRequest = "Invalid request"
	msgFileNotFound   = "File not found"
	msgInvalidProject = "Invalid project file"
	msgInternal       = "Internal server error"
)

// RestServer представляет REST API сервер
type RestServer struct {
	router      *gin.Engine
	service     *GridService
	port        string
	metrics     *ServerMetrics
	defaultSize int
	logger      *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port        string                // адрес для запуска сервера, ":8080"
	Service     *GridService          // операции над сеткой
	Registerer  prometheus.Registerer // регистр метрик, nil - глобальный
	EnableCORS  bool                  // разрешить запросы браузерного клиента
	DefaultSize int                   // размер для set_grid_size без size
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8080"
	}
	if config.DefaultSize <= 0 {
		config.DefaultSize = voxelgrid.DefaultSize
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("voxel_api"))
	router.Use(middleware.NewRequestLogger().Handler())

	promMw := middleware.NewPrometheusMiddleware("voxel_api", config.Registerer)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	if config.EnableCORS {
		router.Use(middleware.CORS())
	}

	server := &RestServer{
		router:      router,
		service:     config.Service,
		port:        config.Port,
		metrics:     NewServerMetrics(),
		defaultSize: config.DefaultSize,
		logger:      logging.GetServerLogger(),
	}

	server.setupRoutes()
	return server
}

// Router возвращает gin.Engine (тесты, встраивание)
func (rs *RestServer) Router() *gin.Engine { return rs.router }

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	api := rs.router.Group("/api")
	{
		api.GET("/grid", rs.handleGetGrid)
		api.POST("/update_voxel", rs.handleUpdateVoxel)
		api.POST("/set_grid_size", rs.handleSetGridSize)

		api.POST("/save", rs.handleSave)
		api.GET("/load/:filename", rs.handleLoad)
		api.GET("/projects", rs.handleProjects)

		api.GET("/palette", rs.handlePalette)
		api.GET("/stats", rs.handleStats)
		api.GET("/export/png", rs.handleExportPNG)
	}

	rs.router.GET("/health", rs.handleHealth)
}

func (rs *RestServer) fail(c *gin.Context, code int, message string) {
	c.JSON(code, protocol.ErrorResponse{Status: protocol.StatusError, Message: message})
}

// handleGetGrid отдаёт сетку целиком: внешняя длина массива равна размеру
func (rs *RestServer) handleGetGrid(c *gin.Context) {
	c.JSON(http.StatusOK, rs.service.Grid().Snapshot())
}

// updateVoxelBody - тело update_voxel при разборе на сервере.
// Указатели отличают отсутствующую координату от нуля.
type updateVoxelBody struct {
	X          *int `json:"x" binding:"required"`
	Y          *int `json:"y" binding:"required"`
	Z          *int `json:"z" binding:"required"`
	ColorIndex *int `json:"color_index"`
}

// handleUpdateVoxel записывает одну ячейку
func (rs *RestServer) handleUpdateVoxel(c *gin.Context) {
	var body updateVoxelBody
	if err := c.ShouldBindJSON(&body); err != nil {
		rs.fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	req := protocol.UpdateVoxelRequest{X: *body.X, Y: *body.Y, Z: *body.Z, ColorIndex: body.ColorIndex}

	colorIndex := 1
	if req.ColorIndex != nil {
		colorIndex = *req.ColorIndex
	}

	cell := vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}
	value, err := rs.service.UpdateVoxel(c.Request.Context(), cell, colorIndex)
	if errors.Is(err, voxelgrid.ErrOutOfBounds) {
		rs.fail(c, http.StatusBadRequest, msgOutOfBounds)
		return
	}
	if err != nil {
		rs.logger.Error("update_voxel %v: %v", cell, err)
		rs.fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	c.JSON(http.StatusOK, protocol.UpdateVoxelResponse{
		Status:     protocol.StatusSuccess,
		X:          req.X,
		Y:          req.Y,
		Z:          req.Z,
		Value:      value,
		ColorIndex: colorIndex,
	})
}

// handleSetGridSize меняет размер сетки; текущий размер сбрасывает сетку
func (rs *RestServer) handleSetGridSize(c *gin.Context) {
	var req protocol.SetGridSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rs.fail(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if req.Size == 0 {
		req.Size = rs.defaultSize
	}

	if err := rs.service.Resize(c.Request.Context(), req.Size); err != nil {
		if errors.Is(err, voxelgrid.ErrInvalidSize) {
			rs.fail(c, http.StatusBadRequest, msgInvalidSize)
			return
		}
		rs.logger.Error("set_grid_size %d: %v", req.Size, err)
		rs.fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	c.JSON(http.StatusOK, protocol.SetGridSizeResponse{Status: protocol.StatusSuccess, GridSize: req.Size})
}

// handleSave сохраняет сетку в файл проекта на сервере
func (rs *RestServer) handleSave(c *gin.Context) {
	var req protocol.SaveRequest
	// Пустое тело допустимо: имя сгенерируется
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			rs.fail(c, http.StatusBadRequest, msgInvalidRequest)
			return
		}
	}

	filename, err := rs.service.SaveProject(c.Request.Context(), req.Name)
	if err != nil {
		rs.logger.Error("save %q: %v", req.Name, err)
		rs.fail(c, http.StatusInternalServerError, msgInternal)
		return
	}
	c.JSON(http.StatusOK, protocol.SaveResponse{Status: protocol.StatusSuccess, Filename: filename})
}

// handleLoad загружает проект и заменяет им авторитетную сетку
func (rs *RestServer) handleLoad(c *gin.Context) {
	filename := c.Param("filename")

	doc, err := rs.service.LoadProject(c.Request.Context(), filename)
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidName):
		rs.fail(c, http.StatusNotFound, msgFileNotFound)
		return
	case errors.Is(err, project.ErrFormat):
		rs.fail(c, http.StatusBadRequest, msgInvalidProject)
		return
	case err != nil:
		rs.logger.Error("load %q: %v", filename, err)
		rs.fail(c, http.StatusInternalServerError, msgInternal)
		return
	}

	c.JSON(http.StatusOK, protocol.LoadResponse{
		Status:   protocol.StatusSuccess,
		Grid:     doc.Grid,
		GridSize: doc.GridSize,
		Palette:  doc.Palette,
	})
}

func (rs *RestServer) handleProjects(c *gin.Context) {
	names, err := rs.service.ListProjects()
	if err != nil {
		rs.logger.Error("projects: %v", err)
		rs.fail(c, http.StatusInternalServerError, msgInternal)
		return
	}
	c.JSON(http.StatusOK, protocol.ProjectsResponse{Status: protocol.StatusSuccess, Projects: names})
}

func (rs *RestServer) handlePalette(c *gin.Context) {
	c.JSON(http.StatusOK, protocol.PaletteResponse{
		Status:  protocol.StatusSuccess,
		Palette: protocol.PaletteEntries(rs.service.Grid().Palette()),
	})
}

// handleStats возвращает статистику сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	grid := rs.service.Grid()
	cpuPercent, err := rs.metrics.GetCPUUsage()
	if err != nil {
		rs.logger.Debug("CPU недоступен: %v", err)
	}

	c.JSON(http.StatusOK, protocol.StatsResponse{
		Status:        protocol.StatusSuccess,
		UptimeSeconds: rs.metrics.Uptime().Seconds(),
		GridSize:      grid.Size(),
		VoxelCount:    grid.Count(),
		Version:       grid.Version(),
		MemoryMB:      rs.metrics.GetMemoryUsage(),
		CPUPercent:    cpuPercent,
		Goroutines:    runtime.NumGoroutine(),
	})
}

// handleExportPNG: кадр снимает клиент, сервер изображений не рисует
func (rs *RestServer) handleExportPNG(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "info",
		"message": "Export PNG should be triggered from the client side.",
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}
