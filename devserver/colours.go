package devserver

const (
	ansiGreen = "\033[32m"
	ansiBlue  = "\033[34m"
	ansiGray  = "\033[90m"
	ansiReset = "\033[0m"
)

// methodColors covers the verbs the dev server registers; anything else prints gray
var methodColors = map[string]string{
	"GET":  ansiGreen,
	"POST": ansiBlue,
}
