package models

import "time"

type ProjectResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	BitcoinAddress   string     `json:"bitcoin_address,omitempty"`
	GoalAmount       string     `json:"goal_amount"`
	GoalCurrency     string     `json:"goal_currency"`
	BalanceBTC       string     `json:"balance_btc"`
	BalanceUpdatedAt *time.Time `json:"balance_updated_at,omitempty"`
	AmountRaised     string     `json:"amount_raised"`
	ProgressPercent  string     `json:"progress_percent"`
	GoalAchieved     bool       `json:"goal_achieved"`
	RateStale        bool       `json:"rate_stale,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type ProjectSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	GoalAmount   string    `json:"goal_amount"`
	GoalCurrency string    `json:"goal_currency"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RefreshBalanceResponse struct {
	BalanceBTC      string     `json:"balance_btc"`
	AmountRaised    string     `json:"amount_raised"`
	GoalCurrency    string     `json:"goal_currency"`
	ProgressPercent string     `json:"progress_percent"`
	GoalAchieved    bool       `json:"goal_achieved"`
	Refreshed       bool       `json:"refreshed"`
	NextAllowedAt   *time.Time `json:"next_allowed_at,omitempty"`
	RateStale       bool       `json:"rate_stale,omitempty"`
}

type UploadSlotResponse struct {
	UploadURL   string    `json:"upload_url"`
	StoragePath string    `json:"storage_path"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type MediaResponse struct {
	MediaID     string    `json:"media_id"`
	Position    int       `json:"position"`
	StoragePath string    `json:"storage_path"`
	PublicURL   string    `json:"public_url,omitempty"`
	AltText     string    `json:"alt_text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type MediaListResponse struct {
	Media []MediaResponse `json:"media"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
