package device

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/open-eyes/handheld/internal/model"
)

const tickInterval = 200 * time.Millisecond

// CaneSimulator stands in for the out-of-scope cane firmware (spec 2B):
// it optionally drives a real Arduino (CSV telemetry: yaw,pitch,roll,
// upper,lower,humidity) and a real NMEA GPS receiver over serial, and/or
// falls back to synthetic data for either. It republishes ticks as the
// exact JSON Packet wire format for internal/transport to carry over the
// websocket bridge, mirroring the teacher's ArduinoDevice.StartSimulation.
type CaneSimulator struct {
	arduino *SerialDevice
	gps     *SerialDevice
	log     *logrus.Logger

	servoAngle float64
	servoStep  float64
	tick       int
}

// NewCaneSimulator builds a simulator. Empty device paths fall back to
// synthetic data for that sensor group.
func NewCaneSimulator(arduinoDev string, arduinoBaud int, gpsDev string, gpsBaud int, log *logrus.Logger) (*CaneSimulator, error) {
	c := &CaneSimulator{log: log, servoStep: 6.0}

	if arduinoDev != "" {
		dev, err := NewSerialDevice(arduinoDev, arduinoBaud)
		if err != nil {
			return nil, fmt.Errorf("open arduino serial: %w", err)
		}
		c.arduino = dev
	}
	if gpsDev != "" {
		dev, err := NewSerialDevice(gpsDev, gpsBaud)
		if err != nil {
			return nil, fmt.Errorf("open gps serial: %w", err)
		}
		c.gps = dev
	}
	return c, nil
}

// Close releases any open serial ports.
func (c *CaneSimulator) Close() error {
	var err error
	if c.arduino != nil {
		err = c.arduino.Close()
	}
	if c.gps != nil {
		if gerr := c.gps.Close(); err == nil {
			err = gerr
		}
	}
	return err
}

// Packets emits one Packet every tick interval until ctx is cancelled. The
// returned channel is closed on exit.
func (c *CaneSimulator) Packets(ctx context.Context) <-chan model.Packet {
	out := make(chan model.Packet, 8)
	go func() {
		defer close(out)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case out <- c.nextPacket():
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (c *CaneSimulator) nextPacket() model.Packet {
	c.tick++

	imu, upper, lower, humidity := c.readArduinoOrSynthesize()
	gps := c.readGpsOrSynthesize()

	c.servoAngle += c.servoStep
	if c.servoAngle > 90 || c.servoAngle < -90 {
		c.servoStep = -c.servoStep
		c.servoAngle += 2 * c.servoStep
	}

	return model.Packet{
		TimestampMs: time.Now().UnixMilli(),
		IMU:         imu,
		Obstacles: model.ObstaclePair{
			Upper:      upper,
			Lower:      lower,
			ServoAngle: c.servoAngle,
		},
		Water: model.WaterSensor{HumidityLevel: humidity},
		GPS:   gps,
	}
}

// readArduinoOrSynthesize reads one CSV line "yaw,pitch,roll,upper,lower,humidity"
// from the real Arduino if attached, else generates a plausible synthetic
// reading (a gentle walking sway plus an obstacle 3m ahead).
func (c *CaneSimulator) readArduinoOrSynthesize() (model.IMU, *float64, *float64, float64) {
	if c.arduino != nil {
		line, err := c.arduino.ReadLine(500 * time.Millisecond)
		if err == nil {
			if imu, upper, lower, humidity, ok := parseArduinoCSV(line); ok {
				return imu, upper, lower, humidity
			}
		} else {
			c.log.WithError(err).Debug("arduino read timeout, falling back to synthetic")
		}
	}

	phase := float64(c.tick) * 0.1
	imu := model.IMU{
		Yaw:   8 * math.Sin(phase),
		Pitch: 2 * math.Sin(phase*2),
		Roll:  1.5 * math.Cos(phase),
	}
	upper := 3.0 + math.Sin(phase*0.5)
	lower := 2.5 + math.Cos(phase*0.7)
	return imu, &upper, &lower, 5.0
}

func parseArduinoCSV(line string) (model.IMU, *float64, *float64, float64, bool) {
	line = strings.TrimSpace(line)
	parts := strings.Split(line, ",")
	if len(parts) != 6 {
		return model.IMU{}, nil, nil, 0, false
	}
	vals := make([]float64, 6)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.IMU{}, nil, nil, 0, false
		}
		vals[i] = v
	}
	imu := model.IMU{Yaw: vals[0], Pitch: vals[1], Roll: vals[2]}
	upper, lower := vals[3], vals[4]
	return imu, &upper, &lower, vals[5], true
}

// readGpsOrSynthesize reads a GPGGA line from the real GPS receiver if
// attached, else synthesizes a fix walking slowly northeast from a fixed
// origin.
func (c *CaneSimulator) readGpsOrSynthesize() model.GpsFix {
	if c.gps != nil {
		line, err := c.gps.ReadLine(500 * time.Millisecond)
		if err == nil {
			if fix := parseGPGGA(line); fix.ok {
				sats := fix.satellites
				hdop := fix.hdop
				return model.GpsFix{
					Latitude:        &fix.latitude,
					Longitude:       &fix.longitude,
					SatellitesCount: &sats,
					HDOP:            &hdop,
					FixType:         model.Fix3D,
				}
			}
		} else {
			c.log.WithError(err).Debug("gps read timeout, falling back to synthetic")
		}
	}

	const originLat, originLon = 40.7128, -74.0060
	drift := float64(c.tick) * 0.00001
	lat := originLat + drift
	lon := originLon + drift
	sats := 9
	hdop := 1.2
	return model.GpsFix{
		Latitude:        &lat,
		Longitude:       &lon,
		SatellitesCount: &sats,
		HDOP:            &hdop,
		FixType:         model.Fix3D,
	}
}
