package audit

import (
	"context"
	"time"
)

const (
	topUserLimit = 10
	dailyWindow  = 7
)

type UserActivity struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	ActivityCount int    `json:"activityCount"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Summary aggregates the trail over the last PeriodDays. Daily activity
// always covers the last week.
type Summary struct {
	PeriodDays int            `json:"periodDays"`
	TotalLogs  int            `json:"totalLogs"`
	ByAction   map[string]int `json:"actionStatistics"`
	ByEntity   map[string]int `json:"entityStatistics"`
	TopUsers   []UserActivity `json:"topUsers"`
	Daily      []DailyCount   `json:"dailyActivity"`
}

func (s *Service) Summary(ctx context.Context, days int, now time.Time) (Summary, error) {
	since := now.AddDate(0, 0, -days)
	out := Summary{PeriodDays: days, TopUsers: []UserActivity{}, Daily: []DailyCount{}}

	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM audit_logs WHERE created_at >= $1", since).Scan(&out.TotalLogs); err != nil {
		return Summary{}, err
	}
	var err error
	if out.ByAction, err = s.countBy(ctx, "action_type", since); err != nil {
		return Summary{}, err
	}
	if out.ByEntity, err = s.countBy(ctx, "entity_type", since); err != nil {
		return Summary{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT a.user_id::text, COALESCE(u.email, ''), COUNT(1) AS activity
    FROM audit_logs a
    LEFT JOIN users u ON u.id = a.user_id
    WHERE a.created_at >= $1 AND a.user_id IS NOT NULL
    GROUP BY a.user_id, u.email
    ORDER BY activity DESC
    LIMIT $2
  `, since, topUserLimit)
	if err != nil {
		return Summary{}, err
	}
	for rows.Next() {
		var ua UserActivity
		if err := rows.Scan(&ua.UserID, &ua.Email, &ua.ActivityCount); err != nil {
			rows.Close()
			return Summary{}, err
		}
		out.TopUsers = append(out.TopUsers, ua)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	rows, err = s.DB.Query(ctx, `
    SELECT to_char(created_at::date, 'YYYY-MM-DD') AS day, COUNT(1)
    FROM audit_logs
    WHERE created_at >= $1
    GROUP BY day
    ORDER BY day
  `, now.AddDate(0, 0, -dailyWindow))
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return Summary{}, err
		}
		out.Daily = append(out.Daily, dc)
	}
	return out, rows.Err()
}

// countBy groups on a column name chosen by this package, never by a caller.
func (s *Service) countBy(ctx context.Context, column string, since time.Time) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+column+", COUNT(1) FROM audit_logs WHERE created_at >= $1 GROUP BY "+column, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		out[key] = count
	}
	return out, rows.Err()
}
