package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pagetone/pagetone-backend/internal/apperr"
	"github.com/pagetone/pagetone-backend/internal/logger"
)

// PageSyncService hands a reading position from one device to another
// through a short-lived code. The code is read-once: the first claim
// consumes it.
type PageSyncService interface {
	// Push stores the position and returns the code to enter on the other
	// device.
	Push(ctx context.Context, bookID uuid.UUID, page int) (string, error)
	// Pop claims a pushed position. A second Pop with the same code fails
	// with not-found.
	Pop(ctx context.Context, code string) (*PageSyncPayload, error)
}

type PageSyncPayload struct {
	BookID uuid.UUID `json:"book_id"`
	Page   int       `json:"page"`
}

const (
	pageSyncTTL      = 5 * time.Minute
	pageSyncCodeLen  = 6
	pageSyncAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

type pageSyncService struct {
	log   *logger.Logger
	redis *redis.Client
}

func NewPageSyncService(log *logger.Logger, client *redis.Client) PageSyncService {
	return &pageSyncService{
		log:   log.With("service", "PageSyncService"),
		redis: client,
	}
}

func syncKey(code string) string {
	return "page_sync:" + code
}

func generateSyncCode() (string, error) {
	out := make([]byte, pageSyncCodeLen)
	max := big.NewInt(int64(len(pageSyncAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = pageSyncAlphabet[n.Int64()]
	}
	return string(out), nil
}

func (s *pageSyncService) Push(ctx context.Context, bookID uuid.UUID, page int) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("%w: page must be positive", apperr.ErrValidation)
	}
	raw, err := json.Marshal(PageSyncPayload{BookID: bookID, Page: page})
	if err != nil {
		return "", err
	}

	// Retry on the rare code collision instead of overwriting someone
	// else's pending sync.
	for attempt := 0; attempt < 5; attempt++ {
		code, genErr := generateSyncCode()
		if genErr != nil {
			return "", genErr
		}
		ok, setErr := s.redis.SetNX(ctx, syncKey(code), raw, pageSyncTTL).Result()
		if setErr != nil {
			return "", setErr
		}
		if ok {
			s.log.Debug("Page sync pushed", "book_id", bookID, "page", page)
			return code, nil
		}
	}
	return "", fmt.Errorf("could not allocate sync code")
}

func (s *pageSyncService) Pop(ctx context.Context, code string) (*PageSyncPayload, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", apperr.ErrValidation)
	}
	raw, err := s.redis.GetDel(ctx, syncKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var payload PageSyncPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode sync payload: %w", err)
	}
	return &payload, nil
}
