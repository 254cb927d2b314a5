package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"vaultflow/internal/presentation/cycle"
	"vaultflow/internal/presentation/models"
	"vaultflow/internal/sentinel"
	id "vaultflow/pkg/domain"
)

const (
	cycleKeyPrefix = "request_cycle:"

	// defaultCycleTTL applies when the store is built without a TTL.
	defaultCycleTTL = 24 * time.Hour
)

// cycleJSON is the serialized form of a cycle.
type cycleJSON struct {
	SessionID          string         `json:"session_id"`
	DefinitionID       string         `json:"definition_id"`
	CallbackURL        string         `json:"callback_url"`
	DoVerification     bool           `json:"do_verification"`
	State              string         `json:"state"`
	ExtensionInstalled bool           `json:"extension_installed"`
	Error              string         `json:"error,omitempty"`
	ErrorDescription   string         `json:"error_description,omitempty"`
	Data               map[string]any `json:"data,omitempty"`
	RequestURL         string         `json:"request_url,omitempty"`
	Initiations        int            `json:"initiations"`
	CreatedAt          int64          `json:"created_at"` // Unix nano
	UpdatedAt          int64          `json:"updated_at"` // Unix nano
}

func cycleToJSON(c *models.Cycle) *cycleJSON {
	return &cycleJSON{
		SessionID:          c.SessionID.String(),
		DefinitionID:       c.DefinitionID,
		CallbackURL:        c.CallbackURL,
		DoVerification:     c.DoVerification,
		State:              string(c.State),
		ExtensionInstalled: c.ExtensionInstalled,
		Error:              c.Error,
		ErrorDescription:   c.ErrorDescription,
		Data:               c.Data,
		RequestURL:         c.RequestURL,
		Initiations:        c.Initiations,
		CreatedAt:          c.CreatedAt.UnixNano(),
		UpdatedAt:          c.UpdatedAt.UnixNano(),
	}
}

func cycleFromJSON(j *cycleJSON) (*models.Cycle, error) {
	sessionID, err := uuid.Parse(j.SessionID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	state := cycle.State(j.State)
	if !state.IsValid() {
		return nil, fmt.Errorf("unknown cycle state %q: %w", j.State, sentinel.ErrInvalidState)
	}
	return &models.Cycle{
		SessionID:          id.SessionID(sessionID),
		DefinitionID:       j.DefinitionID,
		CallbackURL:        j.CallbackURL,
		DoVerification:     j.DoVerification,
		State:              state,
		ExtensionInstalled: j.ExtensionInstalled,
		Error:              j.Error,
		ErrorDescription:   j.ErrorDescription,
		Data:               j.Data,
		RequestURL:         j.RequestURL,
		Initiations:        j.Initiations,
		CreatedAt:          time.Unix(0, j.CreatedAt),
		UpdatedAt:          time.Unix(0, j.UpdatedAt),
	}, nil
}

// RedisCycleStore shares cycles between instances. It does not serialize
// updates itself: instances must share a RedisLocker around load and save.
// Every save refreshes the key's TTL so abandoned sessions expire on their
// own.
type RedisCycleStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed cycle store.
func NewRedis(client redis.Cmdable, ttl time.Duration) *RedisCycleStore {
	if ttl <= 0 {
		ttl = defaultCycleTTL
	}
	return &RedisCycleStore{client: client, ttl: ttl}
}

func cycleKey(sessionID id.SessionID) string {
	return cycleKeyPrefix + sessionID.String()
}

func (s *RedisCycleStore) Save(ctx context.Context, c *models.Cycle) error {
	if c == nil {
		return fmt.Errorf("cycle is required")
	}
	data, err := json.Marshal(cycleToJSON(c))
	if err != nil {
		return fmt.Errorf("marshal cycle: %w", err)
	}
	if err := s.client.Set(ctx, cycleKey(c.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cycle: %w", err)
	}
	return nil
}

func (s *RedisCycleStore) FindBySession(ctx context.Context, sessionID id.SessionID) (*models.Cycle, error) {
	data, err := s.client.Get(ctx, cycleKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cycle not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load cycle: %w", err)
	}
	var j cycleJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal cycle: %w", err)
	}
	return cycleFromJSON(&j)
}
