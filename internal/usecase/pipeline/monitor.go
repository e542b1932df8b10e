package pipeline

import (
	"context"
	"encoding/json"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/veritas-team/meeting-pipeline/internal/domain/entities"
)

// meetCodeRe extracts the native meeting code from a Google Meet link
var meetCodeRe = regexp.MustCompile(`meet\.google\.com/([a-z0-9-]+)`)

// storedToken is the shape of the OAuth token JSON kept on the user row
type storedToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ScanCalendars is stage 1: scan each monitored user's calendar for
// conference events around now and record unseen ones as detected
// meetings. Per-user failures are isolated so one revoked token does not
// stall everyone else's scan.
func (s *pipelineService) ScanCalendars(ctx context.Context) (*ScanResult, error) {
	ok, release := s.acquireStage(ctx, "calendar-monitor")
	if !ok {
		return &ScanResult{Step: StepCalendarMonitor, Status: StatusSkipped, Timestamp: s.now()}, nil
	}
	defer release()

	result := &ScanResult{Step: StepCalendarMonitor, Status: StatusSuccess}

	users, err := s.userRepo.FindMonitored(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	windowStart := now.Add(-s.cfg.Pipeline.ScanLookback)
	windowEnd := now.Add(s.cfg.Pipeline.ScanLookahead)

	for _, user := range users {
		if len(user.GoogleCalendarToken) == 0 {
			continue
		}
		result.UsersScanned++

		var token storedToken
		if err := json.Unmarshal(user.GoogleCalendarToken, &token); err != nil {
			result.Failures++
			s.logger.Warn("⚠️ Skipping user with malformed calendar token",
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
			continue
		}

		userID := user.ID
		onRefresh := func(t *oauth2.Token) error {
			raw, err := json.Marshal(t)
			if err != nil {
				return err
			}
			return s.userRepo.UpdateCalendarToken(ctx, userID, raw)
		}

		events, err := s.calendarSvc.ListUpcoming(ctx, user.CalendarAddress(), token.AccessToken, token.RefreshToken, onRefresh, windowStart, windowEnd)
		if err != nil {
			result.Failures++
			s.logger.Error("❌ Calendar scan failed for user",
				zap.String("user_id", user.ID.String()),
				zap.Error(err),
			)
			continue
		}

		for _, event := range events {
			nativeID := extractMeetCode(event.MeetingURL)
			if nativeID == "" {
				continue
			}
			result.EventsSeen++

			// Ad-hoc meetings are created moments before they start
			isInstant := !event.Created.IsZero() &&
				now.Sub(event.Created) >= 0 &&
				now.Sub(event.Created) <= s.cfg.Pipeline.InstantThreshold

			meeting := entities.NewMeeting(user, nativeID, event.MeetingURL, event.Summary, event.Start, isInstant)
			if !event.End.IsZero() {
				end := event.End
				meeting.EndedAt = &end
			}

			created, err := s.meetingRepo.CreateIfAbsent(ctx, meeting)
			if err != nil {
				result.Failures++
				s.logger.Error("❌ Failed to record detected meeting",
					zap.String("native_meeting_id", nativeID),
					zap.Error(err),
				)
				continue
			}
			if created {
				result.MeetingsCreated++
				s.logger.Info("📅 New meeting detected",
					zap.String("meeting_id", meeting.ID.String()),
					zap.String("native_meeting_id", nativeID),
					zap.Bool("is_instant", isInstant),
				)
			}
		}
	}

	result.Timestamp = s.now()
	return result, nil
}

// extractMeetCode returns the meeting code from a Google Meet URL, or ""
// when the link is not a recognized conference URL
func extractMeetCode(url string) string {
	m := meetCodeRe.FindStringSubmatch(url)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
