package postgres

import (
	"time"

	"gorm.io/datatypes"

	"github.com/nerrad567/plantbridge/internal/reading"
	"github.com/nerrad567/plantbridge/internal/sensor"
)

// sensorRow is the sensors table.
type sensorRow struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	DeviceID  string    `gorm:"type:text;not null;uniqueIndex:idx_sensors_device_id"`
	OwnerID   string    `gorm:"type:text;not null;index:idx_sensors_owner"`
	Model     *string   `gorm:"type:text"`
	Brand     *string   `gorm:"type:text"`
	HWName    *string   `gorm:"column:hw_name;type:text"`
	ProbeType *string   `gorm:"type:text;check:chk_sensors_probe_type,probe_type IN ('shallow','deep')"`
	Notes     *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (sensorRow) TableName() string {
	return "sensors"
}

// readingRow is the readings table. Rows are never updated.
type readingRow struct {
	ID              string         `gorm:"type:uuid;primaryKey"`
	SensorID        string         `gorm:"type:uuid;not null;index:idx_readings_sensor_time,priority:1"`
	Sensor          sensorRow      `gorm:"foreignKey:SensorID;constraint:OnDelete:RESTRICT"`
	OwnerIDSnapshot string         `gorm:"type:text;not null;index:idx_readings_owner_time,priority:1"`
	Moisture        *float64       `gorm:"type:double precision"`
	Temperature     *float64       `gorm:"type:double precision"`
	Fertility       *float64       `gorm:"type:double precision"`
	LightLux        *float64       `gorm:"type:double precision"`
	Battery         *int64         `gorm:"type:bigint"`
	SignalStrength  *int64         `gorm:"type:bigint"`
	RawPayload      datatypes.JSON `gorm:"type:json;not null"`
	Topic           string         `gorm:"type:text;not null"`
	ReceivedAt      time.Time      `gorm:"type:timestamptz;not null;index:idx_readings_sensor_time,priority:2;index:idx_readings_owner_time,priority:2"`
}

func (readingRow) TableName() string {
	return "readings"
}

func sensorToRow(s *sensor.Sensor) sensorRow {
	row := sensorRow{
		ID:        s.ID,
		DeviceID:  s.DeviceID,
		OwnerID:   s.OwnerID,
		Model:     s.Model,
		Brand:     s.Brand,
		HWName:    s.HWName,
		Notes:     s.Notes,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.ProbeType.Known() {
		pt := string(s.ProbeType)
		row.ProbeType = &pt
	}
	return row
}

func (row sensorRow) toSensor() *sensor.Sensor {
	s := &sensor.Sensor{
		ID:       row.ID,
		DeviceID: row.DeviceID,
		OwnerID:  row.OwnerID,
		Metadata: sensor.Metadata{
			Model:     row.Model,
			Brand:     row.Brand,
			HWName:    row.HWName,
			ProbeType: sensor.ProbeUnknown,
		},
		Notes:     row.Notes,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.ProbeType != nil {
		s.ProbeType = sensor.ParseProbeType(*row.ProbeType)
	}
	return s
}

// patchColumns maps a metadata patch to the columns it sets.
func patchColumns(patch sensor.MetadataPatch) map[string]any {
	cols := make(map[string]any, 4)
	if patch.Model != nil {
		cols["model"] = *patch.Model
	}
	if patch.Brand != nil {
		cols["brand"] = *patch.Brand
	}
	if patch.HWName != nil {
		cols["hw_name"] = *patch.HWName
	}
	if patch.ProbeType != nil {
		cols["probe_type"] = string(*patch.ProbeType)
	}
	return cols
}

func readingToRow(rd *reading.Reading) readingRow {
	return readingRow{
		ID:              rd.ID,
		SensorID:        rd.SensorID,
		OwnerIDSnapshot: rd.OwnerIDSnapshot,
		Moisture:        rd.Moisture,
		Temperature:     rd.Temperature,
		Fertility:       rd.Fertility,
		LightLux:        rd.LightLux,
		Battery:         rd.Battery,
		SignalStrength:  rd.SignalStrength,
		RawPayload:      datatypes.JSON(rd.RawPayload),
		Topic:           rd.Topic,
		ReceivedAt:      rd.ReceivedAt.UTC(),
	}
}

func (row readingRow) toReading() reading.Reading {
	return reading.Reading{
		ID:              row.ID,
		SensorID:        row.SensorID,
		OwnerIDSnapshot: row.OwnerIDSnapshot,
		Measurements: reading.Measurements{
			Moisture:       row.Moisture,
			Temperature:    row.Temperature,
			Fertility:      row.Fertility,
			LightLux:       row.LightLux,
			Battery:        row.Battery,
			SignalStrength: row.SignalStrength,
		},
		RawPayload: []byte(row.RawPayload),
		Topic:      row.Topic,
		ReceivedAt: row.ReceivedAt.UTC(),
	}
}
