package models

type CreateProjectRequest struct {
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description,omitempty"`
	BitcoinAddress string `json:"bitcoin_address,omitempty"`
	// Goal amount in GoalCurrency, as a decimal string (e.g. "1000.00").
	GoalAmount   string `json:"goal_amount,omitempty"`
	GoalCurrency string `json:"goal_currency,omitempty"`
	// Manually maintained fallback used when no bitcoin address is set.
	LegacyRaisedAmount string `json:"legacy_raised_amount,omitempty"`
}

type IssueUploadSlotRequest struct {
	Extension string `json:"extension" binding:"required"`
}

type ConfirmUploadRequest struct {
	StoragePath string `json:"storage_path" binding:"required"`
	AltText     string `json:"alt_text,omitempty"`
}

type UpdateAltTextRequest struct {
	AltText string `json:"alt_text"`
}
