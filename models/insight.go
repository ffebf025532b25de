package models

import "time"

type PlannerInsight struct {
	Location              string          `gorm:"column:location;primaryKey" json:"location"`
	AverageCongestion     CongestionLevel `gorm:"column:average_congestion" json:"average_congestion"`
	HighAccidentZones     []string        `gorm:"column:high_accident_zones;serializer:json" json:"high_accident_zones"`
	SuggestedImprovements string          `gorm:"column:suggested_improvements" json:"suggested_improvements"`
	GeneratedAt           time.Time       `gorm:"column:generated_at" json:"generated_at"`
}

func (PlannerInsight) TableName() string { return "planner_insights" }
