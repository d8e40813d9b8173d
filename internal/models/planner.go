package models

import "time"

// DayMeals holds the planned meals for one day. Empty strings mean the
// slot has not been filled in.
type DayMeals struct {
	Breakfast string `bson:"breakfast" json:"breakfast"`
	Lunch     string `bson:"lunch" json:"lunch"`
	Snacks    string `bson:"snacks" json:"snacks"`
	Dinner    string `bson:"dinner" json:"dinner"`
}

// TaskItem is one entry in the day's task list. Tasks are stored as an
// ordered array inside the planner document, so the item's position in
// the array is its identity.
type TaskItem struct {
	Text       string `bson:"text" json:"text"`
	IsComplete bool   `bson:"isComplete" json:"is_complete"`
}

// DayPlanner is the per-user per-day planner document, keyed by user id
// plus a "2006-01-02" date string.
type DayPlanner struct {
	UserID    string     `bson:"user_id" json:"user_id"`
	Date      string     `bson:"date" json:"date"`
	Meals     DayMeals   `bson:"meals" json:"meals"`
	Tasks     []TaskItem `bson:"tasks" json:"tasks"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// EmptyPlanner returns the planner shown when no document exists yet for
// the given day.
func EmptyPlanner(userID, date string) *DayPlanner {
	return &DayPlanner{
		UserID: userID,
		Date:   date,
		Tasks:  []TaskItem{},
	}
}
