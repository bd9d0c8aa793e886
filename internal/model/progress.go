package model

import "time"

// Progress fields written to the daily_progress row.
const (
	ProgressMath    = "math"
	ProgressEnglish = "english"
	ProgressHabits  = "habits"
)

// DailyProgress holds the day's completion percentages.
type DailyProgress struct {
	Math    int `json:"math_progress"`
	English int `json:"english_progress"`
	Habits  int `json:"habits_progress"`
}

// Set assigns value to the named field and reports whether the name is known.
func (p *DailyProgress) Set(field string, value int) bool {
	switch field {
	case ProgressMath:
		p.Math = value
	case ProgressEnglish:
		p.English = value
	case ProgressHabits:
		p.Habits = value
	default:
		return false
	}
	return true
}

// DefaultInterestTypes lists the interest axes seeded for a new student.
var DefaultInterestTypes = []string{
	"history", "engineering", "music", "martial", "logic", "art",
}

// MaxInterestScore caps an interest score.
const MaxInterestScore = 100

// Interests maps interest type to a 0-100 score.
type Interests map[string]int

// Choice is the most recent daily choice the student made.
type Choice struct {
	Date  string `json:"date"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// Student is the profile row of the single local user.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// WeeklyAchievement is a highlighted performance shown on the dashboard.
type WeeklyAchievement struct {
	ID       string `json:"id,omitempty"`
	Date     string `json:"achievement_date"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
	Score    int    `json:"score"`
	Comment  string `json:"comment"`
	MediaURL string `json:"media_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

// Achievement is an earned badge.
type Achievement struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"achievement_name"`
	Description string    `json:"achievement_desc"`
	Icon        string    `json:"achievement_icon"`
	EarnedAt    time.Time `json:"earned_at,omitempty"`
}

// UnlockedReward is a reward the student has unlocked.
type UnlockedReward struct {
	ID              string    `json:"id,omitempty"`
	Name            string    `json:"reward_name"`
	Icon            string    `json:"reward_icon"`
	UnlockCondition string    `json:"unlock_condition"`
	UnlockedAt      time.Time `json:"unlocked_at,omitempty"`
}

// Photo is an uploaded picture. Data holds the encoded image.
type Photo struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Data      string    `json:"photo_data"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
