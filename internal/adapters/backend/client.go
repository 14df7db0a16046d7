package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/athebyme/emag-console/pkg/interfaces"
	"github.com/google/uuid"
)

// RequestIDHeader - заголовок идентификатора исходящего запроса
const RequestIDHeader = "X-Request-ID"

// maxErrorBody ограничивает объем тела ошибки, который читается для разбора
const maxErrorBody = 64 << 10

// RequestObserver получает длительность и итог каждого запроса к бэкенду
type RequestObserver interface {
	ObserveBackendRequest(endpoint, outcome string, duration time.Duration)
}

// Config - параметры клиента бэкенда интеграции
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client - HTTP-граница с бэкендом интеграции eMAG
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     interfaces.TokenProvider
	logger     interfaces.LoggerPort
	observer   RequestObserver
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient задает собственный http.Client (используется в тестах)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenProvider задает источник bearer-токена
func WithTokenProvider(tp interfaces.TokenProvider) Option {
	return func(c *Client) {
		c.tokens = tp
	}
}

// WithObserver задает получателя метрик запросов
func WithObserver(o RequestObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient создает клиента бэкенда
func NewClient(cfg Config, logger interfaces.LoggerPort, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("не задан адрес бэкенда")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("некорректный адрес бэкенда: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithField("component", "backend_client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// envelope - стандартная обертка ответа бэкенда
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// request описывает один вызов бэкенда
type request struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     interface{}
}

// doRaw выполняет запрос и возвращает тело успешного ответа без разбора
func (c *Client) doRaw(ctx context.Context, r request) (body []byte, err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			outcome := "ok"
			if err != nil {
				outcome = string(KindOf(err))
			}
			c.observer.ObserveBackendRequest(r.endpoint, outcome, time.Since(start))
		}
	}()

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var reader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("ошибка сериализации запроса %s: %w", r.endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса %s: %w", r.endpoint, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.New().String())
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, &APIError{Kind: KindNetwork, Endpoint: r.endpoint, Message: "не удалось получить токен доступа", Err: err}
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Endpoint: r.endpoint, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := classify(r.endpoint, resp.StatusCode, raw)
		c.logger.DebugWithContext(ctx, "Бэкенд вернул ошибку",
			"endpoint", r.endpoint,
			"status", resp.StatusCode,
			"kind", apiErr.Kind,
			"message", apiErr.Message)
		return nil, apiErr
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Endpoint: r.endpoint, Status: resp.StatusCode, Message: "ответ прерван", Err: err}
	}

	return body, nil
}

// do выполняет запрос, снимает обертку и декодирует data в out
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	body, err := c.doRaw(ctx, r)
	if err != nil {
		return err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Подтверждение без тела-объекта допустимо, если данные не нужны
		if out == nil {
			return nil
		}
		return &APIError{Kind: KindServer, Endpoint: r.endpoint, Status: http.StatusOK, Message: "неразборчивый ответ бэкенда", Err: err}
	}

	if strings.EqualFold(env.Status, "error") {
		msg := env.Message
		if msg == "" {
			msg = "бэкенд отклонил запрос"
		}
		return &APIError{Kind: KindValidation, Endpoint: r.endpoint, Status: http.StatusOK, Message: msg}
	}

	if out == nil {
		return nil
	}

	// Некоторые маршруты отвечают без обертки
	data := env.Data
	if len(data) == 0 || string(data) == "null" {
		data = body
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Kind: KindServer, Endpoint: r.endpoint, Status: http.StatusOK, Message: "неразборчивый ответ бэкенда", Err: err}
	}

	return nil
}

// Health проверяет доступность бэкенда. Любой ответ 2xx считается успехом
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRaw(ctx, request{
		endpoint: "health",
		method:   http.MethodGet,
		path:     "/health",
	})
	return err
}
