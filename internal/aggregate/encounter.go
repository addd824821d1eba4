package aggregate

import "iter"

// RelevantReports returns the ids of reports that contain at least one pull
// of encounterID. Time bounds are not applied here. An encounter that never
// occurred yields an empty set, not an error.
func RelevantReports(reports iter.Seq2[Report, error], encounterID int) (ReportSet, error) {
	relevant := make(ReportSet)

	for r, err := range reports {
		if err != nil {
			return nil, err
		}
		if hasEncounter(r.Fights, encounterID) {
			relevant[r.ID] = struct{}{}
		}
	}

	return relevant, nil
}

func hasEncounter(fights []Fight, encounterID int) bool {
	for _, f := range fights {
		if f.EncounterID == encounterID {
			return true
		}
	}
	return false
}
