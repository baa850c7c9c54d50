package ledger

import (
	"time"
)

// Status is the lifecycle state of an instance row.
type Status string

const (
	StatusStarted    Status = "started"
	StatusTerminated Status = "terminated"
	StatusFailed     Status = "failed"
)

// transitions is the exhaustive lifecycle table. Terminated and failed are
// terminal; a row never re-enters started.
var transitions = map[Status][]Status{
	StatusStarted:    {StatusTerminated, StatusFailed},
	StatusTerminated: {},
	StatusFailed:     {},
}

func canTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Instance is one guest execution attempt. Resource fields and hops are fixed
// at creation; only status and the readiness endpoint are mutated afterwards.
type Instance struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Functions string    `gorm:"column:functions" json:"functions"`
	Kernel    string    `gorm:"column:kernel" json:"kernel"`
	Image     string    `gorm:"column:image" json:"image"`
	Vcpus     int       `gorm:"column:vcpus" json:"vcpus"`
	Memory    int       `gorm:"column:memory" json:"memory"`
	IP        string    `gorm:"column:ip" json:"ip"`
	Port      int       `gorm:"column:port" json:"port"`
	Hops      int       `gorm:"column:hops" json:"hops"`
	Status    Status    `gorm:"column:status" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Instance) TableName() string {
	return "instances"
}
