package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/lessonshop/internal/domain"
	"github.com/vladislavdragonenkov/lessonshop/internal/metrics"
	"github.com/vladislavdragonenkov/lessonshop/internal/service/shop"
)

// maxBodyBytes ограничивает размер JSON-тела запроса.
const maxBodyBytes = 1 << 20

// ShopService: операции магазина, которые обслуживает HTTP API.
type ShopService interface {
	ListLessons(ctx context.Context) ([]domain.Lesson, error)
	SearchLessons(ctx context.Context, raw string) ([]domain.Lesson, error)
	PlaceOrder(ctx context.Context, order domain.Order) (shop.OrderReceipt, error)
	UpdateLesson(ctx context.Context, id string, patch domain.LessonPatch) (domain.Lesson, error)
	RecentOrders(ctx context.Context) ([]domain.Order, error)
	Status(ctx context.Context) (shop.StatusReport, error)
	Register(ctx context.Context, reg domain.Registration) (string, error)
	Login(ctx context.Context, creds domain.Credentials) (shop.LoginResult, error)
}

// Handler обслуживает публичные HTTP-маршруты магазина.
type Handler struct {
	shop      ShopService
	imagesDir string
	logger    *log.Entry
}

// NewHandler создаёт HTTP handler поверх сервиса магазина.
func NewHandler(svc ShopService, imagesDir string, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "http-api")
	}
	return &Handler{
		shop:      svc,
		imagesDir: imagesDir,
		logger:    logger,
	}
}

// RegisterRoutes регистрирует маршруты API в mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /lessons", h.handleListLessons)
	mux.HandleFunc("GET /search", h.handleSearch)
	mux.HandleFunc("POST /orders", h.handleCreateOrder)
	mux.HandleFunc("GET /orders", h.handleListOrders)
	mux.HandleFunc("PUT /lessons/{id}", h.handleUpdateLesson)
	mux.HandleFunc("GET /status", h.handleStatus)
	mux.HandleFunc("POST /register", h.handleRegister)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("GET /images/{filename}", h.handleImage)
	mux.HandleFunc("/", h.handleNotFound)
}

// Routes возвращает готовый http.Handler со всеми middleware.
func (h *Handler) Routes(m *metrics.ShopMetrics) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = instrument(handler, m)
	handler = logRequests(handler, h.logger)
	handler = enableCORS(handler)
	return handler
}

func (h *Handler) handleListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.shop.ListLessons(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.shop.SearchLessons(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lessons)
}

type createOrderRequest struct {
	Name  string            `json:"name"`
	Phone phoneField        `json:"phone"`
	Email string            `json:"email"`
	Items []json.RawMessage `json:"items"`
}

// phoneField: телефон, пришедший JSON-строкой или числом. Число сохраняется
// в том виде, в каком записано в теле; null равен пустому телефону.
type phoneField string

func (p *phoneField) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return err
	}
	switch v := value.(type) {
	case nil:
		*p = ""
	case string:
		*p = phoneField(v)
	case json.Number:
		*p = phoneField(v.String())
	default:
		return errors.New("phone must be a string or a number")
	}
	return nil
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	receipt, err := h.shop.PlaceOrder(r.Context(), domain.Order{
		Name:  req.Name,
		Phone: string(req.Phone),
		Email: req.Email,
		Items: req.Items,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.shop.RecentOrders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	// Поле id в теле игнорируется: LessonPatch его не содержит.
	var patch domain.LessonPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	lesson, err := h.shop.UpdateLesson(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.shop.Status(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		h.writeError(w, r, err)
		return
	}

	msg, err := h.shop.Register(r.Context(), reg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: msg})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.shop.Login(r.Context(), creds)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
}

// decodeJSON читает тело запроса; любые проблемы с телом считаются ошибкой валидации.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("body", "request body is required")
		}
		return domain.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return nil
}
