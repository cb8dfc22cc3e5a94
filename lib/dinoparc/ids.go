package dinoparc

import "regexp"

var (
	usernamePattern   = regexp.MustCompile(`^[0-9A-Za-z-]{1,14}$`)
	userIdPattern     = regexp.MustCompile(`^[1-9][0-9]{0,8}$`)
	sessionKeyPattern = regexp.MustCompile(`^[0-9a-z]{32}$`)
	dinozIdPattern    = regexp.MustCompile(`^[1-9][0-9]{0,8}$`)
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

func (v SessionKey) Redacted() string {
	if len(v) < 4 {
		return "****"
	}
	return string(v[:4]) + "****************************"
}

type DinozId string

func ParseDinozId(raw string) (DinozId, error) {
	if !dinozIdPattern.MatchString(raw) {
		return "", &InvalidValueError{Kind: "dinoz id", Raw: raw}
	}
	return DinozId(raw), nil
}

func (v DinozId) String() string { return string(v) }
