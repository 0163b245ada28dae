// Package model holds the domain entities shared between the storage layer
// and the report conversation.
package model

// Group is the per-chat configuration required before reports can be filed.
type Group struct {
	GroupID  int64  `db:"group_id"`
	Language string `db:"language"`
	// Pokestop indicates reports must carry a point-of-interest name.
	Pokestop bool   `db:"pokestop"`
	Timezone string `db:"timezone"`
	// Confirmation gates the conversation behind an inline accept/reject step.
	Confirmation bool `db:"confirmation"`
}

// User is a registered participant.
type User struct {
	UserID   int64  `db:"user_id"`
	Language string `db:"language"`
	Admin    bool   `db:"admin"`
	Reports  int    `db:"reports"`
}

// Report is a persisted task report. MessageID points at the rendered report
// message, LocationID at the location share or echo it belongs to.
type Report struct {
	GroupID    int64   `db:"group_id"`
	MessageID  int     `db:"message_id"`
	LocationID int     `db:"location_id"`
	Longitude  float64 `db:"longitude"`
	Latitude   float64 `db:"latitude"`
	Reward     string  `db:"reward"`
	Timezone   string  `db:"timezone"`
	Pokestop   string  `db:"pokestop"`
}

// RewardUnconfirmed marks a placeholder report awaiting an inline selection.
const RewardUnconfirmed = "unconfirmed"

// Task is a single-reward catalog entry in one language.
type Task struct {
	Language string `db:"language"`
	Category string `db:"category"`
	Task     string `db:"task"`
	Reward   string `db:"reward"`
	CP       int    `db:"cp"`
	Shiny    bool   `db:"shiny"`
	Event    bool   `db:"event"`
}

// MultiTask is a catalog entry whose task may drop one of several rewards.
type MultiTask struct {
	Language string   `db:"language"`
	Category string   `db:"category"`
	Task     string   `db:"task"`
	Rewards  []string `db:"rewards"`
	Shiny    []bool   `db:"shiny"`
	Event    bool     `db:"event"`
}

// ReportMatch tags how a report reference was resolved.
type ReportMatch int

const (
	// MatchMessageID means the lookup hit the rendered report message id.
	MatchMessageID ReportMatch = iota
	// MatchLocationID means the lookup fell back to the location message id.
	MatchLocationID
)
