package models

import (
	"time"

	"gorm.io/gorm"
)

// Model is the base model with common fields for all database entities
type Model struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// ReadingSource identifies where a telemetry reading or emergency originated
type ReadingSource string

const (
	// SourceApp represents readings submitted by the companion mobile app
	SourceApp ReadingSource = "app"
	// SourceDevice represents readings submitted by the wearable device itself
	SourceDevice ReadingSource = "device"
	// SourceWeb represents readings submitted through the web dashboard
	SourceWeb ReadingSource = "web"
	// SourceCaregiver represents emergencies raised by a caregiver on behalf of an owner
	SourceCaregiver ReadingSource = "caregiver"
)

// Location is a GPS coordinate with optional accuracy in meters
type Location struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// Owner model represents a monitored individual wearing the device
type Owner struct {
	Model
	Name  string `json:"name" gorm:"Column:name"`
	Email string `json:"email" gorm:"uniqueIndex;Column:email"`
	Phone string `json:"phone" gorm:"Column:phone"`

	// Linked caregivers receive emergency notifications for this owner
	Caregivers []Caregiver `json:"caregivers,omitempty" gorm:"many2many:owner_caregivers"`

	// Latest-known snapshot maintained by telemetry ingestion, read by dashboards
	LastLatitude  float64    `json:"last_latitude" gorm:"Column:last_latitude"`
	LastLongitude float64    `json:"last_longitude" gorm:"Column:last_longitude"`
	LastDistance  float64    `json:"last_distance" gorm:"Column:last_distance"`
	BatteryLevel  int        `json:"battery_level" gorm:"Column:battery_level;default:100"`
	LastReadingAt *time.Time `json:"last_reading_at" gorm:"Column:last_reading_at"`
}

// Caregiver model represents a party linked to one or more owners
type Caregiver struct {
	Model
	Name  string `json:"name" gorm:"Column:name"`
	Email string `json:"email" gorm:"uniqueIndex;Column:email"`
	Phone string `json:"phone" gorm:"Column:phone"`

	// Notification preferences decide which channel the fan-out uses
	NotifyByEmail bool `json:"notify_by_email" gorm:"Column:notify_by_email;default:true"`
	NotifyByPush  bool `json:"notify_by_push" gorm:"Column:notify_by_push;default:false"`
}

// DeviceRegistration binds a physical device UID to an owner and carries the
// device liveness state. "Connected" is never stored; it is derived from
// LastHeartbeat against the configured heartbeat timeout at read time.
type DeviceRegistration struct {
	Model
	DeviceUID       string     `json:"device_uid" gorm:"uniqueIndex;Column:device_uid"`
	Owner           *Owner     `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	OwnerID         uint       `json:"owner_id" gorm:"Column:owner_id"`
	LastHeartbeat   *time.Time `json:"last_heartbeat" gorm:"Column:last_heartbeat"`
	FirmwareVersion string     `json:"firmware_version" gorm:"Column:firmware_version"`
	Active          bool       `json:"active" gorm:"Column:active;default:true"`
}

// TelemetryReading is one immutable sensor sample. Rows are append-only:
// nothing in the service updates or deletes them after creation.
type TelemetryReading struct {
	ID           uint          `json:"id" gorm:"primarykey"`
	CreatedAt    time.Time     `json:"created_at"`
	Owner        *Owner        `json:"-" gorm:"foreignKey:OwnerID"`
	OwnerID      uint          `json:"owner_id" gorm:"index:idx_readings_owner_ts;Column:owner_id"`
	DistanceCm   float64       `json:"distance_cm" gorm:"Column:distance_cm"`
	BatteryLevel int           `json:"battery_level" gorm:"Column:battery_level"`
	Latitude     float64       `json:"latitude" gorm:"Column:latitude"`
	Longitude    float64       `json:"longitude" gorm:"Column:longitude"`
	Accuracy     float64       `json:"accuracy" gorm:"Column:accuracy;default:10"`
	Source       ReadingSource `json:"source" gorm:"Column:source;default:'app'"`
	Timestamp    time.Time     `json:"timestamp" gorm:"index:idx_readings_owner_ts,sort:desc;Column:timestamp"`
}

// EmergencyStatus is the lifecycle state of an emergency event
type EmergencyStatus string

const (
	// EmergencyPending means the event exists but no caregiver has been reached yet
	EmergencyPending EmergencyStatus = "pending"
	// EmergencyNotified means at least one caregiver was successfully notified
	EmergencyNotified EmergencyStatus = "notified"
	// EmergencyResolved is the terminal state
	EmergencyResolved EmergencyStatus = "resolved"
)

// EmergencyEvent represents one incident with its own lifecycle.
// Status only moves forward: pending -> notified -> resolved.
type EmergencyEvent struct {
	Model
	EventID    string          `json:"event_id" gorm:"uniqueIndex;Column:event_id"`
	Owner      *Owner          `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	OwnerID    uint            `json:"owner_id" gorm:"index;Column:owner_id"`
	Latitude   float64         `json:"latitude" gorm:"Column:latitude"`
	Longitude  float64         `json:"longitude" gorm:"Column:longitude"`
	Accuracy   float64         `json:"accuracy" gorm:"Column:accuracy;default:10"`
	Status     EmergencyStatus `json:"status" gorm:"index;Column:status;default:'pending'"`
	Source     ReadingSource   `json:"source" gorm:"Column:source;default:'app'"`
	ResolvedAt *time.Time      `json:"resolved_at" gorm:"Column:resolved_at"`
	ResolvedBy *uint           `json:"resolved_by" gorm:"Column:resolved_by"`

	// Only successful deliveries are recorded here; failed attempts are logged
	// and retried by the follow-up worker, never stored on the event.
	Notifications []NotificationRecord `json:"notifications" gorm:"foreignKey:EventID;references:EventID"`
}

// NotificationMethod is the channel a caregiver was reached on
type NotificationMethod string

const (
	// MethodEmail is delivery via SMTP
	MethodEmail NotificationMethod = "email"
	// MethodPush is delivery via the alerts message queue
	MethodPush NotificationMethod = "push"
	// MethodSMS is reserved for a future SMS channel
	MethodSMS NotificationMethod = "sms"
)

// NotificationRecord is one successful delivery to one caregiver for one event
type NotificationRecord struct {
	ID          uint               `json:"id" gorm:"primarykey"`
	EventID     string             `json:"event_id" gorm:"index;Column:event_id"`
	Caregiver   *Caregiver         `json:"caregiver,omitempty" gorm:"foreignKey:CaregiverID"`
	CaregiverID uint               `json:"caregiver_id" gorm:"Column:caregiver_id"`
	NotifiedAt  time.Time          `json:"notified_at" gorm:"Column:notified_at"`
	Method      NotificationMethod `json:"method" gorm:"Column:method;default:'email'"`
}

// Location returns the event's coordinates as a Location value
func (e *EmergencyEvent) Location() Location {
	acc := e.Accuracy
	return Location{Latitude: e.Latitude, Longitude: e.Longitude, Accuracy: &acc}
}

// WasNotified reports whether the given caregiver appears in the event's
// successful-delivery records
func (e *EmergencyEvent) WasNotified(caregiverID uint) bool {
	for _, n := range e.Notifications {
		if n.CaregiverID == caregiverID {
			return true
		}
	}
	return false
}
