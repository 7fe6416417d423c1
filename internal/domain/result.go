package domain

// LogLevel classifies a battle log line for spectator display.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogAction  LogLevel = "action"
	LogSuccess LogLevel = "success"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// LogLine is one entry in a battle's event stream.
type LogLine struct {
	Side      int
	Type      LogLevel
	Message   string
	Timestamp int64
}

// Scores holds each side's raw validator score for a completed battle.
type Scores struct {
	A float64
	B float64
}

// BattleResult is the outcome of one battle engine run.
type BattleResult struct {
	Winner     int
	GameMode   GameMode
	DurationMs int64
	Summary    string
	Scores     Scores
	Logs       []LogLine
	IsError    bool
}
