package hammerfest

import "time"

type Credentials struct {
	Server   Server   `json:"server"`
	Username Username `json:"username"`
	Password string   `json:"password"`
}

// ShortUser is the minimal display projection of a game account. The
// id is permanent, the username is whatever was observed last.
type ShortUser struct {
	Server   Server   `json:"server"`
	Id       UserId   `json:"id"`
	Username Username `json:"username"`
}

// UserIdRef identifies an account without display data, it is the key
// used by stores and the link archive.
type UserIdRef struct {
	Server Server `json:"server"`
	Id     UserId `json:"id"`
}

func (u ShortUser) Ref() UserIdRef {
	return UserIdRef{Server: u.Server, Id: u.Id}
}

// Session is immutable, re-validation produces a fresh value with the
// same Key and User.Id but a refreshed ATime.
type Session struct {
	CTime time.Time  `json:"ctime"`
	ATime time.Time  `json:"atime"`
	Key   SessionKey `json:"key"`
	User  ShortUser  `json:"user"`
}

type QuestStatus string

const (
	QuestNone     QuestStatus = "None"
	QuestPending  QuestStatus = "Pending"
	QuestComplete QuestStatus = "Complete"
)

type HallOfFameMessage struct {
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

type Profile struct {
	User        ShortUser `json:"user"`
	Email       *string   `json:"email,omitempty"`
	BestScore   uint32    `json:"best_score"`
	BestLevel   uint32    `json:"best_level"`
	HasCarrot   bool      `json:"has_carrot"`
	SeasonScore uint32    `json:"season_score"`
	// ladder rank, 0 (top) to 4 (unranked)
	Rank       uint8                   `json:"rank"`
	HallOfFame *HallOfFameMessage      `json:"hall_of_fame,omitempty"`
	Items      map[ItemId]struct{}     `json:"items"`
	Quests     map[QuestId]QuestStatus `json:"quests"`
}

type Shop struct {
	Tokens          uint32  `json:"tokens"`
	WeeklyTokens    uint32  `json:"weekly_tokens"`
	PurchasedTokens *uint32 `json:"purchased_tokens"`
	HasQuestBonus   bool    `json:"has_quest_bonus"`
}

type GodChild struct {
	User   ShortUser `json:"user"`
	Tokens uint32    `json:"tokens"`
}

// ForumDate is a date as the forum renders it: no year, French
// weekday, local time.
type ForumDate struct {
	Month   uint8 `json:"month"`
	Day     uint8 `json:"day"`
	Weekday uint8 `json:"weekday"`
	Hour    uint8 `json:"hour"`
	Minute  uint8 `json:"minute"`
}

type ShortForumTheme struct {
	Server Server       `json:"server"`
	Id     ForumThemeId `json:"id"`
	Name   string       `json:"name"`
}

type ForumTheme struct {
	ShortForumTheme
	Description string `json:"description"`
}

type ShortForumThread struct {
	Server Server        `json:"server"`
	Id     ForumThreadId `json:"id"`
	Name   string        `json:"name"`
}

type ForumThread struct {
	ShortForumThread
	Author          ShortUser `json:"author"`
	LastMessageDate ForumDate `json:"last_message_date"`
	ReplyCount      uint32    `json:"reply_count"`
	IsSticky        bool      `json:"is_sticky"`
	IsClosed        bool      `json:"is_closed"`
}

// ForumThreadListing is the pagination envelope for a theme page.
type ForumThreadListing struct {
	Page1 uint32        `json:"page1"`
	Pages uint32        `json:"pages"`
	Items []ForumThread `json:"items"`
}

type ForumThemePage struct {
	Theme   ShortForumTheme    `json:"theme"`
	Sticky  []ForumThread      `json:"sticky"`
	Threads ForumThreadListing `json:"threads"`
}

type ForumRole string

const (
	RoleNone          ForumRole = "None"
	RoleModerator     ForumRole = "Moderator"
	RoleAdministrator ForumRole = "Administrator"
)

type ForumPostAuthor struct {
	ShortUser
	HasCarrot bool      `json:"has_carrot"`
	Rank      uint8     `json:"rank"`
	Role      ForumRole `json:"role"`
}

type ForumPost struct {
	// old posts lack a stable anchor, hence optional
	Id      *ForumPostId    `json:"id,omitempty"`
	Author  ForumPostAuthor `json:"author"`
	CTime   ForumDate       `json:"ctime"`
	Content string          `json:"content"`
}

type ForumPostListing struct {
	Page1 uint32      `json:"page1"`
	Pages uint32      `json:"pages"`
	Items []ForumPost `json:"items"`
}

type ForumThreadPage struct {
	Theme    ShortForumTheme  `json:"theme"`
	Thread   ShortForumThread `json:"thread"`
	Messages ForumPostListing `json:"messages"`
}

type GetProfileByIdOptions struct {
	Server Server `json:"server"`
	UserId UserId `json:"user_id"`
}

type GetUserOptions struct {
	Server Server     `json:"server"`
	Id     UserId     `json:"id"`
	Time   *time.Time `json:"time,omitempty"`
}
