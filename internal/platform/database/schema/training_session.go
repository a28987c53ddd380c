package schema

// TrainingSessionTable represents the 'training.session' table
type TrainingSessionTable struct {
	Table          string
	ID             string
	Title          string
	Slug           string
	TrainingTypeID string
	TrainerIDs     string
	LocationID     string
	StartTime      string
	EndTime        string
	Capacity       string
	Roster         string
	NextSeq        string
	Version        string
	CreatedAt      string
	UpdatedAt      string
}

// TrainingSession is the schema definition for training.session
var TrainingSession = TrainingSessionTable{
	Table:          "training.session",
	ID:             "id",
	Title:          "title",
	Slug:           "slug",
	TrainingTypeID: "trainingtypeid",
	TrainerIDs:     "trainerids",
	LocationID:     "locationid",
	StartTime:      "starttime",
	EndTime:        "endtime",
	Capacity:       "capacity",
	Roster:         "roster",
	NextSeq:        "nextseq",
	Version:        "version",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
}

// Columns returns all standard column names in scan order
func (t TrainingSessionTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Slug, t.TrainingTypeID, t.TrainerIDs, t.LocationID,
		t.StartTime, t.EndTime, t.Capacity, t.Roster, t.NextSeq, t.Version,
		t.CreatedAt, t.UpdatedAt,
	}
}
