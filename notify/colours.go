package notify

const (
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Gray   = "\033[90m"

	RedInverse    = "\033[7;31m"
	YellowInverse = "\033[7;33m"

	ResetColor = "\033[0m"
)

var levelColours = map[Level]string{
	LevelError:   Red,
	LevelWarning: Yellow,
	LevelInfo:    Blue,
	LevelSuccess: Green,
}
