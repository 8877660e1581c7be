package model

// ArgumentCluster groups semantically related arguments for one bill
type ArgumentCluster struct {
	ID                   string   `json:"id"`
	BillID               string   `json:"bill_id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Arguments            []string `json:"arguments"` // Argument IDs
	RepresentativeClaims []Claim  `json:"representative_claims"`
	Keywords             []string `json:"keywords,omitempty"`
	Size                 int      `json:"size"`
	Cohesion             float64  `json:"cohesion"` // Mean pairwise similarity, 1 for singletons
	Position             Position `json:"position"`
}

// Coalition is a set of clusters and stakeholders sharing interests
type Coalition struct {
	ID              string           `json:"id"`
	BillID          string           `json:"bill_id"`
	Name            string           `json:"name"`
	Clusters        []string         `json:"clusters"`     // Cluster IDs
	Stakeholders    []string         `json:"stakeholders"` // User IDs
	SharedInterests []string         `json:"shared_interests"`
	Position        Position         `json:"position"`
	Power           float64          `json:"power"` // Share of engaged stakeholders, 0..1
	Diversity       DiversityMetrics `json:"diversity"`
	Profiled        int              `json:"profiled"` // Stakeholders with known metadata
}

// DiversityMetrics are normalized entropy scores of stakeholder attributes
type DiversityMetrics struct {
	Geographic  float64 `json:"geographic"`
	Demographic float64 `json:"demographic"`
	Sectoral    float64 `json:"sectoral"`
	Overall     float64 `json:"overall"`
}
