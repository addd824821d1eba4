package aggregate

// Mortality rule constants.
const (
	MinReportsSeen = 5             // Players seen in fewer reports are dropped from mortality results
	SpiritFormIcon = "Priest-Holy" // Icon whose deaths can be double-counted by spirit form
	DayMS          = 86_400_000
	MaxPercentage  = 100
)

// Shape selects which report query the fetcher runs.
type Shape int

const (
	// ShapeEncounter lists reports in a zone with their pulls of one encounter.
	ShapeEncounter Shape = iota
	// ShapeAttendance lists guild attendance records in a zone.
	ShapeAttendance
	// ShapeDeaths lists reports in a zone and window with wipes, ranked characters and deaths.
	ShapeDeaths
)

func (s Shape) String() string {
	switch s {
	case ShapeEncounter:
		return "encounter"
	case ShapeAttendance:
		return "attendance"
	case ShapeDeaths:
		return "deaths"
	default:
		return "unknown"
	}
}

// ReportQuery describes one paginated walk over the analytics source.
type ReportQuery struct {
	Shape     Shape
	Zone      int
	Encounter int        // 0 when absent
	Window    TimeWindow // only sent for ShapeDeaths
}

// Report is one recorded raid log.
type Report struct {
	ID        string
	StartTime int64 // ms since epoch
	ZoneID    int
	Players   []Player // attendance list or ranked characters, depending on shape
	Fights    []Fight
	Deaths    []DeathEvent
}

// Player identifies a character listed on a report.
type Player struct {
	Name string
}

// Fight is one pull within a report.
type Fight struct {
	ID          int
	EncounterID int
	IsWipe      bool
}

// DeathEvent is one entry of a report's death table.
type DeathEvent struct {
	PlayerName         string
	FightID            int
	Icon               string
	HasDamageAbilities bool
	HasEvents          bool
}

// AttendanceEntry is one player's folded attendance.
type AttendanceEntry struct {
	Name       string
	Count      int
	Percentage int
	Clamped    bool // raw count exceeded the raid total
}

// AttendanceResult is the output of one attendance run.
type AttendanceResult struct {
	TotalRaids int
	Entries    []AttendanceEntry // descending count, ties in first-seen order
}

// MortalityCount holds per-player counters for one mortality run.
type MortalityCount struct {
	ReportsSeen int
	Deaths      int
}

// MortalityEntry is one retained player's average deaths per raid.
type MortalityEntry struct {
	Name        string
	ReportsSeen int
	Deaths      int
	Average     float64
}

// MortalityResult is the output of one mortality run.
type MortalityResult struct {
	Reports int
	Entries []MortalityEntry // descending average, ties in first-seen order
}
