package sensor_test

import (
	"encoding/json"
	"testing"
	"time"

	"codeberg.org/mutker/atmena/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

type conversionCase struct {
	raw  int64
	want float64
}

func convertOne(c sensor.Channel, raw int64, extra sensor.RawValues) sensor.Result {
	values := sensor.RawValues{c: raw}
	for k, v := range extra {
		values[k] = v
	}
	return sensor.Convert(sensor.RawReading{Values: values}).Get(c)
}

func assertConversions(t *testing.T, c sensor.Channel, cases []conversionCase) {
	t.Helper()
	for _, tc := range cases {
		r := convertOne(c, tc.raw, nil)
		require.Equal(t, sensor.Valid, r.Status, "%s(%d)", c, tc.raw)
		assert.InDelta(t, tc.want, r.Value, epsilon, "%s(%d)", c, tc.raw)
	}
}

func TestConvertEmptyReading(t *testing.T) {
	out := sensor.Convert(sensor.RawReading{DeviceID: 5000000001})

	assert.Empty(t, out.Values)
	for _, c := range sensor.Channels() {
		if c.Implemented() {
			assert.Equal(t, sensor.Null, out.Get(c).Status, c.Name())
		} else {
			assert.Equal(t, sensor.NotImplemented, out.Get(c).Status, c.Name())
		}
	}
}

func TestConvertIsPure(t *testing.T) {
	raw := sensor.RawReading{
		DeviceID: 1,
		Created:  time.Date(2015, 1, 1, 12, 0, 0, 0, time.UTC),
		Values:   sensor.RawValues{sensor.CO2: 20, sensor.Humidity: 10000},
	}

	first := sensor.Convert(raw)
	second := sensor.Convert(raw)

	assert.Equal(t, first, second)
	assert.Equal(t, raw.DeviceID, first.DeviceID)
	assert.Equal(t, raw.Created, first.Created)
	assert.Len(t, raw.Values, 2)
}

func TestAirFlow(t *testing.T) {
	r := convertOne(sensor.AirFlow, 50, nil)
	assert.Equal(t, sensor.Null, r.Status, "requires temperature_alt")

	for _, raw := range []int64{0, 1, 20} {
		r := convertOne(sensor.AirFlow, raw, sensor.RawValues{sensor.TemperatureAlt: 470})
		require.Equal(t, sensor.Valid, r.Status)
		assert.Equal(t, 0.0, r.Value, "airFlow(%d)", raw)
	}

	cases := []struct {
		raw, temp int64
		want      float64
	}{
		{50, 0, 4.000602347416394},
		{400, 470, 2.1348833788863235},
		{400, 500, 1.258103411590484},
		{1023, 470, 721.1287438720465},
	}
	for _, tc := range cases {
		r := convertOne(sensor.AirFlow, tc.raw, sensor.RawValues{sensor.TemperatureAlt: tc.temp})
		require.Equal(t, sensor.Valid, r.Status)
		assert.InDelta(t, tc.want, r.Value, epsilon)
	}
}

func TestPassthroughChannels(t *testing.T) {
	for _, c := range []sensor.Channel{sensor.CO2, sensor.Light, sensor.Pressure} {
		assertConversions(t, c, []conversionCase{
			{0, 0}, {1, 1}, {20, 20}, {500, 500}, {1023, 1023},
		})
	}

	assertConversions(t, sensor.Pressure, []conversionCase{{-101325, -101325}})
}

func TestCoal(t *testing.T) {
	assert.Equal(t, sensor.Null, convertOne(sensor.Coal, 0, nil).Status)
	assertConversions(t, sensor.Coal, []conversionCase{
		{1, 1022},
		{20, 50.150000000000006},
		{500, 1.046},
		{1023, 0},
	})
}

func TestHumidity(t *testing.T) {
	assertConversions(t, sensor.Humidity, []conversionCase{
		{0, 0},
		{1, 0},
		{1023, 0},
		{10000, 13.073486328125},
		{55000, 98.9041748046875},
		{65535, 100},
	})
}

func TestLightAlt(t *testing.T) {
	assertConversions(t, sensor.LightAlt, []conversionCase{
		{0, 1.0108},
		{1, 4.354312957175413},
		{20, 48.81437337646591},
		{100, 213.47543977397964},
		{300, 541.6354630994107},
		{350, 281.95011129956345},
		{500, 1000},
		{1023, 1000},
	})
}

func TestO2(t *testing.T) {
	assertConversions(t, sensor.O2, []conversionCase{
		{0, 0},
		{1, 0.03272724890183553},
		{20, 0.6545449780367106},
		{500, 16.363624450917765},
		{1023, 33.47997562657775},
	})
}

func TestPMAlt(t *testing.T) {
	assertConversions(t, sensor.PMAlt, []conversionCase{
		{0, 0.62},
		{1, 0.6217333332911111},
		{20, 0.6546666497781037},
		{500, 1.4866561162037037},
		{1023, 2.393155856837003},
	})
}

func TestSound(t *testing.T) {
	assert.Equal(t, sensor.Null, convertOne(sensor.Sound, 0, nil).Status)
	assertConversions(t, sensor.Sound, []conversionCase{
		{1, 9.489953879425608},
		{20, 59.821251807406206},
		{500, 113.90158454101685},
		{1023, 125.92919644217886},
	})
}

func TestTemperature(t *testing.T) {
	assertConversions(t, sensor.Temperature, []conversionCase{
		{0, -46.85},
		{1, -46.847318725585936},
		{1023, -44.10705627441406},
		{10000, -20.037255859375},
		{55000, 100.6200927734375},
		{65535, 128.86731872558593},
	})
}

func TestTemperatureAlt(t *testing.T) {
	assertConversions(t, sensor.TemperatureAlt, []conversionCase{
		{0, 90.754},
		{1, 90.58543},
		{20, 87.4016},
		{500, 18.944000000000003},
		{1023, -29.41780999999999},
	})
}

func TestVOC(t *testing.T) {
	for _, raw := range []int64{0, 1, 12} {
		assert.Equal(t, sensor.Null, convertOne(sensor.VOC, raw, nil).Status, "voc(%d)", raw)
	}
	assertConversions(t, sensor.VOC, []conversionCase{
		{13, 400},
		{20, 448.90829694323145},
		{500, 3802.6200873362445},
		{1023, 7456.768558951965},
	})
}

func TestNotImplementedChannels(t *testing.T) {
	for _, c := range []sensor.Channel{sensor.PM, sensor.PMAlt2, sensor.VOCAlt} {
		assert.False(t, c.Implemented())
		assert.Equal(t, sensor.NotImplemented, c.Convert(sensor.Int(20), nil).Status)
		assert.Equal(t, sensor.Null, c.Convert(sensor.Value{}, nil).Status)

		out := sensor.Convert(sensor.RawReading{Values: sensor.RawValues{c: 20}})
		assert.NotContains(t, out.Values, c)
	}
}

func TestLookup(t *testing.T) {
	c, ok := sensor.Lookup("temperature_alt")
	require.True(t, ok)
	assert.Equal(t, sensor.TemperatureAlt, c)

	_, ok = sensor.Lookup("Temperature")
	assert.False(t, ok)
	_, ok = sensor.Lookup("fake")
	assert.False(t, ok)

	assert.Len(t, sensor.Channels(), sensor.NumChannels)
	assert.Len(t, sensor.Conversions(), sensor.NumChannels)
	for _, c := range sensor.Channels() {
		got, ok := sensor.Lookup(c.Name())
		require.True(t, ok)
		assert.Equal(t, c, got)
	}
}

func TestConvertChannel(t *testing.T) {
	r := sensor.ConvertChannel("co2", sensor.RawValues{sensor.CO2: 42})
	assert.Equal(t, sensor.Result{Value: 42, Status: sensor.Valid}, r)

	assert.Equal(t, sensor.Null, sensor.ConvertChannel("nope", sensor.RawValues{}).Status)
}

func TestRange(t *testing.T) {
	lo, hi := sensor.Pressure.Range()
	assert.Equal(t, int64(-2147483648), lo)
	assert.Equal(t, int64(2147483647), hi)

	lo, hi = sensor.CO2.Range()
	assert.Equal(t, int64(0), lo)
	assert.Equal(t, int64(65535), hi)
}

func TestConvertedReadingJSON(t *testing.T) {
	out := sensor.Convert(sensor.RawReading{
		DeviceID: 5000000001,
		Created:  time.Date(2015, 1, 1, 12, 0, 0, 0, time.UTC),
		Values:   sensor.RawValues{sensor.CO2: 20},
	})

	data, err := json.Marshal(out)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Len(t, decoded, sensor.NumChannels+2)
	assert.Equal(t, "5000000001", decoded["deviceID"])
	assert.Equal(t, "2015-01-01T12:00:00Z", decoded["created"])
	assert.Equal(t, 20.0, decoded["co2"])
	assert.Nil(t, decoded["voc"])
	assert.Contains(t, decoded, "voc")
}

func TestRawReadingJSONKeepsFractionalSeconds(t *testing.T) {
	data, err := json.Marshal(sensor.RawReading{
		DeviceID: 1,
		Created:  time.Date(2015, 1, 1, 12, 0, 0, 250e6, time.UTC),
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2015-01-01T12:00:00.25Z", decoded["created"])
}
