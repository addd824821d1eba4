package wcl

// Page sizes mirror the limits the analytics API accepts for each listing.
const (
	reportPageLimit     = 100
	attendancePageLimit = 25
)

const encounterQuery = `
query ($page: Int, $zone: Int, $encounter: Int, $guild: Int, $tag: Int, $limit: Int) {
	reportData {
		reports(guildID: $guild, guildTagID: $tag, limit: $limit, page: $page, zoneID: $zone) {
			has_more_pages
			data {
				code
				startTime
				fights(encounterID: $encounter) {
					id
					encounterID
				}
			}
		}
	}
}`

const attendanceQuery = `
query ($page: Int, $zone: Int, $guild: Int, $tag: Int, $limit: Int) {
	guildData {
		guild(id: $guild) {
			attendance(guildTagID: $tag, limit: $limit, page: $page, zoneID: $zone) {
				has_more_pages
				data {
					code
					startTime
					zone {
						id
					}
					players {
						name
					}
				}
			}
		}
	}
}`

const deathsQuery = `
query ($page: Int, $zone: Int, $guild: Int, $tag: Int, $limit: Int, $start: Float, $end: Float) {
	reportData {
		reports(guildID: $guild, guildTagID: $tag, limit: $limit, page: $page, zoneID: $zone,
				startTime: $start, endTime: $end) {
			has_more_pages
			data {
				code
				startTime
				zone {
					id
				}
				fights(killType: Wipes) {
					id
					encounterID
				}
				rankedCharacters {
					name
				}
				table(dataType: Deaths, endTime: $end)
			}
		}
	}
}`
