package http

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

const (
	idempotencyKeyHeader  = "Idempotency-Key"
	defaultIdempotencyTTL = 24 * time.Hour
)

// IdempotencyMiddleware кэширует ответы мутирующих запросов по заголовку
// Idempotency-Key. Запрос без заголовка обрабатывается как обычно.
type IdempotencyMiddleware struct {
	repo   domain.IdempotencyRepository
	ttl    time.Duration
	logger *log.Entry
}

// NewIdempotencyMiddleware конструирует middleware поверх репозитория ключей.
func NewIdempotencyMiddleware(repo domain.IdempotencyRepository, ttl time.Duration, logger *log.Entry) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	if logger == nil {
		logger = log.WithField("component", "idempotency-middleware")
	}
	return &IdempotencyMiddleware{repo: repo, ttl: ttl, logger: logger}
}

// Handler оборачивает следующий обработчик идемпотентной обработкой.
func (m *IdempotencyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil || m.repo == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		requestHash := buildRequestHash(r.Method, r.URL.Path, body)

		record, err := m.repo.CreateProcessing(key, requestHash, time.Now().UTC().Add(m.ttl))
		if err != nil {
			m.replay(w, key, record, err)
			return
		}

		recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		m.store(key, recorder)
	})
}

// replay обслуживает повторный запрос с уже известным ключом.
func (m *IdempotencyMiddleware) replay(w http.ResponseWriter, key string, record domain.IdempotencyRecord, createErr error) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		writeError(w, http.StatusConflict, "idempotency_mismatch", "idempotency key is already used with different request payload")
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusProcessing:
			writeError(w, http.StatusConflict, "idempotency_processing", "request with the same idempotency key is already processing")
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			m.replayStored(w, record)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", "unknown idempotency record status")
		}
	default:
		m.logger.WithError(createErr).WithField("idempotency_key", key).Warn("failed to create idempotency record")
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to initialize idempotent request")
	}
}

func (m *IdempotencyMiddleware) replayStored(w http.ResponseWriter, record domain.IdempotencyRecord) {
	status := record.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(record.ResponseBody)
}

func (m *IdempotencyMiddleware) store(key string, recorder *responseRecorder) {
	var err error
	if recorder.status < http.StatusBadRequest {
		err = m.repo.MarkDone(key, recorder.body.Bytes(), recorder.status)
	} else {
		err = m.repo.MarkFailed(key, recorder.body.Bytes(), recorder.status)
	}
	if err != nil {
		m.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
	}
}

func buildRequestHash(method, path string, body []byte) string {
	payload := make([]byte, 0, len(method)+len(path)+len(body)+2)
	payload = append(payload, method...)
	payload = append(payload, ':')
	payload = append(payload, path...)
	payload = append(payload, ':')
	payload = append(payload, body...)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// responseRecorder дублирует ответ в буфер для последующего кэширования.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}
