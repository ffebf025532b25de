package models

import "time"

type CongestionLevel string

const (
	CongestionLow    CongestionLevel = "Low"
	CongestionMedium CongestionLevel = "Medium"
	CongestionHigh   CongestionLevel = "High"
)

type TrafficReading struct {
	ID              uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Location        string          `gorm:"column:location;index" json:"location"`
	TS              time.Time       `gorm:"column:ts;index" json:"ts"`
	VehicleCount    int             `gorm:"column:vehicle_count" json:"vehicle_count"`
	AccidentReports int             `gorm:"column:accident_reports" json:"accident_reports"`
	SignalTiming    float64         `gorm:"column:signal_timing" json:"signal_timing"`
	CongestionLevel CongestionLevel `gorm:"column:congestion_level" json:"congestion_level"`
	SafetyScore     float64         `gorm:"column:safety_score" json:"safety_score"`
}

func (TrafficReading) TableName() string { return "traffic_readings" }
