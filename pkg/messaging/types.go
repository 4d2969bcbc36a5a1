package messaging

type ChangeTopic string

const (
	// TrackingTopic carries search and document events.
	TrackingTopic ChangeTopic = "finder_tracking"
	// IndexChanged announces a reindexed dataset, payload IndexChange.
	IndexChanged ChangeTopic = "index_changed"
)

type IndexChange struct {
	Dataset string `json:"dataset"`
}
