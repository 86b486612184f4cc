package schema

// SocialNotificationTable represents the 'social.notification' table
type SocialNotificationTable struct {
	Table     string
	ID        string
	UserID    string
	Type      string
	FriendID  string
	TitleID   string
	ChapterID string
	TeamID    string
	IsRead    string
	CreatedAt string
}

// SocialNotification is the schema definition for social.notification
var SocialNotification = SocialNotificationTable{
	Table:     "social.notification",
	ID:        "id",
	UserID:    "userid",
	Type:      "notificationtype",
	FriendID:  "friendid",
	TitleID:   "titleid",
	ChapterID: "chapterid",
	TeamID:    "teamid",
	IsRead:    "isread",
	CreatedAt: "createdat",
}

func (t SocialNotificationTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Type, t.FriendID, t.TitleID, t.ChapterID,
		t.TeamID, t.IsRead, t.CreatedAt,
	}
}
