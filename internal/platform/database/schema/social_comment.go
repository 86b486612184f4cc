package schema

// SocialCommentTable represents the 'social.comment' table
type SocialCommentTable struct {
	Table     string
	ID        string
	TitleID   string
	UserID    string
	ReplyToID string
	Body      string
	IsDeleted string
	Likes     string
	Dislikes  string
	CreatedAt string
}

// SocialComment is the schema definition for social.comment
var SocialComment = SocialCommentTable{
	Table:     "social.comment",
	ID:        "id",
	TitleID:   "titleid",
	UserID:    "userid",
	ReplyToID: "replytoid",
	Body:      "body",
	IsDeleted: "isdeleted",
	Likes:     "likes",
	Dislikes:  "dislikes",
	CreatedAt: "createdat",
}

func (t SocialCommentTable) Columns() []string {
	return []string{
		t.ID, t.TitleID, t.UserID, t.ReplyToID, t.Body, t.IsDeleted,
		t.Likes, t.Dislikes, t.CreatedAt,
	}
}
