package dinoparc

// Server is one of the three official game domains.
type Server string

const (
	ServerFr Server = "dinoparc.com"
	ServerEn Server = "en.dinoparc.com"
	ServerEs Server = "sp.dinoparc.com"
)

func Servers() []Server {
	return []Server{ServerFr, ServerEn, ServerEs}
}

func ParseServer(raw string) (Server, error) {
	switch Server(raw) {
	case ServerFr, ServerEn, ServerEs:
		return Server(raw), nil
	}
	return "", &InvalidValueError{Kind: "server", Raw: raw}
}

func (s Server) String() string {
	return string(s)
}
