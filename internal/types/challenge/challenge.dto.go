package challenge

type StartChallengeRequest struct {
	DelayMinutes int `json:"delay_minutes"`
}

type GenerateChallengesRequest struct {
	Count int `json:"count"`
}

type StartChallengeResponse struct {
	Attempt  *PlayerChallenge `json:"attempt"`
	State    string           `json:"state"`
	Balance  int              `json:"zcoins"`
	Reminder bool             `json:"reminder_scheduled"`
}

type ProofResultResponse struct {
	AttemptID  string `json:"attempt_id"`
	Status     Status `json:"status"`
	FeedbackAr string `json:"feedback_ar"`
	Delta      int    `json:"delta"`
	Balance    int    `json:"zcoins"`
	ProofURL   string `json:"proof_url,omitempty"`
}

// VerificationErrorResponse tells the client how to retry after the oracle
// failed. Retry is "start" when the attempt was refunded and removed, and
// "upload" when the same attempt can take another proof.
type VerificationErrorResponse struct {
	Error       string `json:"error"`
	Refunded    bool   `json:"refunded"`
	State       string `json:"state"`
	Retry       string `json:"retry"`
	ChallengeID string `json:"challenge_id"`
	AttemptID   string `json:"attempt_id,omitempty"`
}

const (
	RetryStart  = "start"
	RetryUpload = "upload"
)

type HandoffResponse struct {
	AttemptID    string `json:"attempt_id"`
	DeepLink     string `json:"deep_link"`
	QrCodeBase64 string `json:"qr_code_base64"`
}
