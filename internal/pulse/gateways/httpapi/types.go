package httpapi

import (
	"time"

	"github.com/haukened/sitepulse/internal/pulse/domain"
)

// ContactConfirmation is the text returned for every contact submission.
const ContactConfirmation = "Message received successfully."

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type contactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type messageResponse struct {
	ID      int64     `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Subject string    `json:"subject"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
	Status  string    `json:"status"`
}

type messagesSection struct {
	Total  int               `json:"total"`
	Weekly int               `json:"weekly"`
	List   []messageResponse `json:"list"`
}

type visitsSection struct {
	Today  int    `json:"today"`
	Change int    `json:"change"`
	Unique uint64 `json:"unique"`
}

type activityResponse struct {
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

type dashboardResponse struct {
	Messages       messagesSection    `json:"messages"`
	OnlineUsers    int                `json:"onlineUsers"`
	Visits         visitsSection      `json:"visits"`
	ConversionRate string             `json:"conversionRate"`
	RecentActivity []activityResponse `json:"recentActivity"`
}

func newDashboardResponse(s domain.Snapshot) dashboardResponse {
	list := make([]messageResponse, 0, len(s.RecentMessages))
	for _, m := range s.RecentMessages {
		list = append(list, messageResponse{
			ID:      m.ID,
			Name:    m.Name,
			Email:   m.Email,
			Subject: m.Subject,
			Message: m.Body,
			Date:    m.CreatedAt.UTC(),
			Status:  string(m.Status),
		})
	}

	activity := make([]activityResponse, 0, len(s.RecentActivity))
	for _, a := range s.RecentActivity {
		activity = append(activity, activityResponse{
			User:      a.Actor,
			Action:    a.Action,
			Timestamp: a.Timestamp.UTC(),
		})
	}

	return dashboardResponse{
		Messages: messagesSection{
			Total:  s.MessagesTotal,
			Weekly: s.MessagesWeekly,
			List:   list,
		},
		OnlineUsers: s.OnlineUsers,
		Visits: visitsSection{
			Today:  s.VisitsToday,
			Change: s.VisitsChange,
			Unique: s.VisitsUnique,
		},
		ConversionRate: s.ConversionRate,
		RecentActivity: activity,
	}
}
