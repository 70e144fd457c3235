package domain

import "time"

// Project is a namespace of issues. It is materialized by the first issue
// created under its name.
type Project struct {
	Name      string    `json:"name" db:"name" bson:"name"`
	CreatedOn time.Time `json:"created_on" db:"created_on" bson:"created_on"`
}
