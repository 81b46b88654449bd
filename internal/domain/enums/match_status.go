package enums

type MatchStatus string

const (
	MatchStatusMatched MatchStatus = "matched"
)

type InterviewStatus string

const (
	InterviewStatusScheduled InterviewStatus = "scheduled"
)
