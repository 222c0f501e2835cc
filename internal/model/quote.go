package model

// Quote is one row of the static quote dataset.
//
// Quotes are read-only: the table is rebuilt from the embedded CSV at every
// startup and never mutated afterwards. Context is the narrative situation
// the line was spoken in; Source is the game title it comes from.
type Quote struct {
	ID      int64  `json:"id"      db:"id"`
	Quote   string `json:"quote"   db:"quote"`
	Author  string `json:"author"  db:"author"`
	Context string `json:"context" db:"context"`
	Source  string `json:"source"  db:"source"`
}
