package device

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestParseArduinoCSVValidLine(t *testing.T) {
	imu, upper, lower, humidity, ok := parseArduinoCSV("1.5,2.5,-3.0,3.2,1.1,42.0")
	require.True(t, ok)
	assert.Equal(t, 1.5, imu.Yaw)
	assert.Equal(t, 2.5, imu.Pitch)
	assert.Equal(t, -3.0, imu.Roll)
	require.NotNil(t, upper)
	require.NotNil(t, lower)
	assert.Equal(t, 3.2, *upper)
	assert.Equal(t, 1.1, *lower)
	assert.Equal(t, 42.0, humidity)
}

func TestParseArduinoCSVRejectsWrongFieldCount(t *testing.T) {
	_, _, _, _, ok := parseArduinoCSV("1.5,2.5,-3.0")
	assert.False(t, ok)
}

func TestParseGPGGAExtractsPosition(t *testing.T) {
	line := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	fix := parseGPGGA(line)
	require.True(t, fix.ok)
	assert.InDelta(t, 48.1173, fix.latitude, 0.001)
	assert.InDelta(t, 11.5166, fix.longitude, 0.001)
	assert.Equal(t, 8, fix.satellites)
}

func TestParseGPGGARejectsNonGGALine(t *testing.T) {
	fix := parseGPGGA("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A")
	assert.False(t, fix.ok)
}

func TestCaneSimulatorEmitsSyntheticPackets(t *testing.T) {
	sim, err := NewCaneSimulator("", 0, "", 0, silentLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	packets := sim.Packets(ctx)
	pkt, ok := <-packets
	require.True(t, ok)
	assert.False(t, pkt.HasNaN())
	assert.NotNil(t, pkt.GPS.Latitude)
	assert.Equal(t, "3d", string(pkt.GPS.FixType))
}
