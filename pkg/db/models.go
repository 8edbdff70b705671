package db

// Word is one dictionary row: a normalized word and how often training saw it.
type Word struct {
	Word      string
	Instances uint64
}

// TrainingCountKey is the parameters key holding the shared training epoch.
const TrainingCountKey = "training_count"
