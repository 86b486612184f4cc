package schema

// SocialSubscriptionTable represents the 'social.subscription' table
type SocialSubscriptionTable struct {
	Table     string
	ID        string
	UserID    string
	TitleID   string
	TeamID    string
	CreatedAt string
}

// SocialSubscription is the schema definition for social.subscription
var SocialSubscription = SocialSubscriptionTable{
	Table:     "social.subscription",
	ID:        "id",
	UserID:    "userid",
	TitleID:   "titleid",
	TeamID:    "teamid",
	CreatedAt: "createdat",
}
