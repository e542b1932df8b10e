package pipeline

// ReprocessRequest resets a failed meeting back to an earlier pipeline status
type ReprocessRequest struct {
	TargetStatus string `json:"targetStatus" validate:"required,oneof=detected bot_joined transcribed participants_matched"`
}
