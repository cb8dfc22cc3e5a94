package dinoparc

import "time"

type Credentials struct {
	Server   Server   `json:"server"`
	Username Username `json:"username"`
	Password string   `json:"password"`
}

type ShortUser struct {
	Server   Server   `json:"server"`
	Id       UserId   `json:"id"`
	Username Username `json:"username"`
}

type UserIdRef struct {
	Server Server `json:"server"`
	Id     UserId `json:"id"`
}

func (u ShortUser) Ref() UserIdRef {
	return UserIdRef{Server: u.Server, Id: u.Id}
}

type Session struct {
	CTime time.Time  `json:"ctime"`
	ATime time.Time  `json:"atime"`
	Key   SessionKey `json:"key"`
	User  ShortUser  `json:"user"`
}

type ShortDinoz struct {
	Server Server  `json:"server"`
	Id     DinozId `json:"id"`
	Name   string  `json:"name"`
}

// Elements are the five elemental affinities of a dinoz.
type Elements struct {
	Fire    uint16 `json:"fire"`
	Earth   uint16 `json:"earth"`
	Water   uint16 `json:"water"`
	Thunder uint16 `json:"thunder"`
	Air     uint16 `json:"air"`
}

type Dinoz struct {
	ShortDinoz
	Owner        *ShortUser       `json:"owner,omitempty"`
	Race         string           `json:"race"`
	Skin         string           `json:"skin"`
	Life         uint8            `json:"life"`
	Level        uint16           `json:"level"`
	Experience   uint8            `json:"experience"`
	Danger       int16            `json:"danger"`
	InTournament bool             `json:"in_tournament"`
	Elements     Elements         `json:"elements"`
	Skills       map[string]uint8 `json:"skills"`
}

// BankPage is the signed-in landing page: the session owner, their
// coin balance and their dinoz roster.
type BankPage struct {
	User  ShortUser    `json:"user"`
	Coins uint32       `json:"coins"`
	Dinoz []ShortDinoz `json:"dinoz"`
}

type GetDinozOptions struct {
	Server  Server  `json:"server"`
	DinozId DinozId `json:"dinoz_id"`
}

type GetUserOptions struct {
	Server Server     `json:"server"`
	Id     UserId     `json:"id"`
	Time   *time.Time `json:"time,omitempty"`
}
