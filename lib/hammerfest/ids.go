package hammerfest

import "regexp"

// Validated identifier newtypes. The Parse functions are the only
// sanctioned way to produce these values, everything downstream (store
// keys, urls, display) assumes they already match their pattern.

var (
	usernamePattern     = regexp.MustCompile(`^[0-9A-Za-z]{1,12}$`)
	userIdPattern       = regexp.MustCompile(`^[1-9][0-9]{0,8}$`)
	sessionKeyPattern   = regexp.MustCompile(`^[0-9a-z]{26}$`)
	itemIdPattern       = regexp.MustCompile(`^(0|[1-9][0-9]{0,3})$`)
	questIdPattern      = regexp.MustCompile(`^[0-9]{1,9}$`)
	forumThemeIdPattern = regexp.MustCompile(`^[0-9]{1,2}$`)
	forumThreadIdPat    = regexp.MustCompile(`^[0-9]{1,9}$`)
	forumPostIdPattern  = regexp.MustCompile(`^[0-9]{1,9}$`)
)

type Username string

func ParseUsername(raw string) (Username, error) {
	if !usernamePattern.MatchString(raw) {
		return "", &InvalidValueError{Kind: "username", Raw: raw}
	}
	return Username(raw), nil
}

func (v Username) String() string { return string(v) }

type UserId string

func ParseUserId(raw string) (UserId, error) {
	if !userIdPattern.MatchString(raw) {
		return "", &InvalidValueError{Kind: "user id", Raw: raw}
	}
	return UserId(raw), nil
}

func (v UserId) String() string { return string(v) }

// SessionKey is a bearer credential, it must never be logged in full.
type SessionKey string

func ParseSessionKey(raw string) (SessionKey, error) {
	if !sessionKeyPattern.MatchString(raw) {
		return "", &InvalidValueError{Kind: "session key", Raw: "<redacted>"}
	}
	return SessionKey(raw), nil
}

func (v SessionKey) String() string { return string(v) }

// Redacted keeps just enough of the key to correlate log lines.
func (v SessionKey) Redacted() string {
	if len(v) < 4 {
		return "****"
	}
	return string(v[:4]) + "**********************"
}

type ItemId string

func ParseItemId(raw string) (ItemId, error) {
	if !itemIdPattern.MatchString(raw) {
		return "", &InvalidValueError{Kind: "item id", Raw: raw}
	}
	return ItemId(raw), nil
}

func (v ItemId) String() string { return string(v) }

type QuestId string

func ParseQuestId(raw string) (QuestId, error) {
	if !questIdPattern.MatchString(raw) {
		return "", &InvalidValueError{Kind: "quest id", Raw: raw}
	}
	return QuestId(raw), nil
}

func (v QuestId) String() string { return string(v) }

type ForumThemeId string

func ParseForumThemeId(raw string) (ForumThemeId, error) {
	if !forumThemeIdPattern.MatchString(raw) {
		return "", &InvalidValueError{Kind: "forum theme id", Raw: raw}
	}
	return ForumThemeId(raw), nil
}

func (v ForumThemeId) String() string { return string(v) }

type ForumThreadId string

func ParseForumThreadId(raw string) (ForumThreadId, error) {
	if !forumThreadIdPat.MatchString(raw) {
		return "", &InvalidValueError{Kind: "forum thread id", Raw: raw}
	}
	return ForumThreadId(raw), nil
}

func (v ForumThreadId) String() string { return string(v) }

type ForumPostId string

func ParseForumPostId(raw string) (ForumPostId, error) {
	if !forumPostIdPattern.MatchString(raw) {
		return "", &InvalidValueError{Kind: "forum post id", Raw: raw}
	}
	return ForumPostId(raw), nil
}

func (v ForumPostId) String() string { return string(v) }
