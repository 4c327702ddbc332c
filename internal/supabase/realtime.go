package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"fundraising-backend/internal/config"
)

type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(cfg *config.Config) (*RealtimeClient, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, nil)
	if err != nil {
		return nil, err
	}

	return &RealtimeClient{
		client: client,
	}, nil
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// Supabase Realtime picks up the row changes made by the database
	// client automatically; subscribed frontends receive them without
	// an explicit publish. This hook exists for events that have no
	// backing row change.
	return nil
}

func (r *RealtimeClient) PublishProjectEvent(projectID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("project:%s", projectID.String())
	return r.PublishEvent(channel, event, payload)
}

func BalanceRefreshedPayload(projectID uuid.UUID, balanceBTC string) map[string]interface{} {
	return map[string]interface{}{
		"project_id":  projectID.String(),
		"balance_btc": balanceBTC,
	}
}

func MediaChangedPayload(projectID uuid.UUID, action string) map[string]interface{} {
	return map[string]interface{}{
		"project_id": projectID.String(),
		"action":     action,
	}
}
