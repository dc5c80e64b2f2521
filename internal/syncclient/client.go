// Package syncclient связывает клиентское хранилище сетки с авторитетной
// копией на сервере: HTTP-клиент API и согласование подтверждённых правок.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/annel0/voxel-editor/internal/protocol"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
)

var (
	// ErrTransport - запрос не дошёл или ответ не разобран
	ErrTransport = errors.New("transport failure")
	// ErrRejected - сервер ответил неуспешным статусом
	ErrRejected = errors.New("rejected by backend")
)

// RejectedError несёт код и сообщение сервера. errors.Is(err, ErrRejected) == true.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("backend rejected request (%d): %s", e.StatusCode, e.Message)
}

func (e *RejectedError) Unwrap() error { return ErrRejected }

// Update - эхо сервера на запись ячейки
type Update struct {
	Cell  vec.Vec3
	Value int
}

// Backend - операции сервера, нужные согласователю
type Backend interface {
	QueryGrid(ctx context.Context) (voxelgrid.Dense, error)
	UpdateVoxel(ctx context.Context, cell vec.Vec3, colorIndex int) (Update, error)
	ResizeGrid(ctx context.Context, size int) (int, error)
}

// Client - HTTP-клиент API редактора
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient подменяет http.Client (таймауты, транспорт)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout задаёт таймаут запросов
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient создаёт клиент для сервера baseURL (например http://localhost:8080)
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL возвращает адрес сервера
func (c *Client) BaseURL() string { return c.baseURL }

// QueryGrid запрашивает плотный массив сетки. Размер - внешняя длина.
func (c *Client) QueryGrid(ctx context.Context) (voxelgrid.Dense, error) {
	var dense voxelgrid.Dense
	if err := c.do(ctx, http.MethodGet, protocol.PathGrid, nil, &dense); err != nil {
		return nil, err
	}
	if dense.Size() == 0 {
		return nil, fmt.Errorf("%w: empty grid in response", ErrTransport)
	}
	return dense, nil
}

// UpdateVoxel записывает индекс цвета в ячейку (0 - удалить)
func (c *Client) UpdateVoxel(ctx context.Context, cell vec.Vec3, colorIndex int) (Update, error) {
	req := protocol.UpdateVoxelRequest{X: cell.X, Y: cell.Y, Z: cell.Z, ColorIndex: &colorIndex}
	var resp protocol.UpdateVoxelResponse
	if err := c.do(ctx, http.MethodPost, protocol.PathUpdateVoxel, req, &resp); err != nil {
		return Update{}, err
	}
	return Update{
		Cell:  vec.Vec3{X: resp.X, Y: resp.Y, Z: resp.Z},
		Value: resp.Value,
	}, nil
}

// ResizeGrid меняет размер сетки и возвращает подтверждённый размер
func (c *Client) ResizeGrid(ctx context.Context, size int) (int, error) {
	var resp protocol.SetGridSizeResponse
	if err := c.do(ctx, http.MethodPost, protocol.PathSetGridSize, protocol.SetGridSizeRequest{Size: size}, &resp); err != nil {
		return 0, err
	}
	return resp.GridSize, nil
}

// SaveProject сохраняет сетку в файл на сервере, возвращает имя файла
func (c *Client) SaveProject(ctx context.Context, name string) (string, error) {
	var resp protocol.SaveResponse
	if err := c.do(ctx, http.MethodPost, protocol.PathSave, protocol.SaveRequest{Name: name}, &resp); err != nil {
		return "", err
	}
	return resp.Filename, nil
}

// LoadProject загружает серверный проект; сетка сервера заменяется
func (c *Client) LoadProject(ctx context.Context, filename string) (*protocol.LoadResponse, error) {
	var resp protocol.LoadResponse
	if err := c.do(ctx, http.MethodGet, protocol.PathLoad+url.PathEscape(filename), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListProjects возвращает имена сохранённых проектов
func (c *Client) ListProjects(ctx context.Context) ([]string, error) {
	var resp protocol.ProjectsResponse
	if err := c.do(ctx, http.MethodGet, protocol.PathProjects, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// Palette возвращает палитру сервера
func (c *Client) Palette(ctx context.Context) ([]protocol.PaletteEntry, error) {
	var resp protocol.PaletteResponse
	if err := c.do(ctx, http.MethodGet, protocol.PathPalette, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Palette, nil
}

// Stats возвращает состояние сервера
func (c *Client) Stats(ctx context.Context) (*protocol.StatsResponse, error) {
	var resp protocol.StatsResponse
	if err := c.do(ctx, http.MethodGet, protocol.PathStats, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e protocol.ErrorResponse
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			msg = e.Message
		}
		return &RejectedError{StatusCode: resp.StatusCode, Message: msg}
	}

	// Успешный HTTP-код, но status: "error" в теле тоже отказ
	var status struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &status) == nil && status.Status == protocol.StatusError {
		return &RejectedError{StatusCode: resp.StatusCode, Message: status.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrTransport, path, err)
	}
	return nil
}
