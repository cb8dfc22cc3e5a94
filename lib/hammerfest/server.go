package hammerfest

// Server is one of the three official game mirrors. The set is closed:
// every function taking a Server may assume it came from ParseServer or
// one of the constants below.
type Server string

const (
	ServerFr  Server = "hammerfest.fr"
	ServerNet Server = "hfest.net"
	ServerEs  Server = "hammerfest.es"
)

func Servers() []Server {
	return []Server{ServerFr, ServerNet, ServerEs}
}

func ParseServer(raw string) (Server, error) {
	switch Server(raw) {
	case ServerFr, ServerNet, ServerEs:
		return Server(raw), nil
	}
	return "", &InvalidValueError{Kind: "server", Raw: raw}
}

func (s Server) String() string {
	return string(s)
}
