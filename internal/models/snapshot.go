package models

// EntitySnapshot is an immutable copy of the entity store taken at generation time.
type EntitySnapshot struct {
	Faculty    []Faculty   `json:"faculty"`
	Subjects   []Subject   `json:"subjects"`
	Batches    []Batch     `json:"batches"`
	Classrooms []Classroom `json:"classrooms"`
	Rules      Rules       `json:"rules"`
}
